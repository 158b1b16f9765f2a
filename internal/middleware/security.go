package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// SecureHeaders sets the browser hardening headers on every non-upgrade
// response. Empty fields fall back to defaults; DevMode relaxes the CSP so
// the dashboard can be served from a local dev server.
type SecureHeaders struct {
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	ContentSecurityPolicy string
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	PermissionsPolicy     string

	DevMode bool
}

var (
	productionCSP = []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: blob:",
		"connect-src 'self' ws: wss:",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	developmentCSP = []string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' *",
		"style-src 'self' 'unsafe-inline' *",
		"img-src * data: blob:",
		"connect-src *",
	}
)

const defaultPermissionsPolicy = "camera=(), geolocation=(), microphone=(), payment=(), usb=()"

func DefaultSecureHeaders(devMode bool) *SecureHeaders {
	return &SecureHeaders{
		HSTSMaxAge:            63072000, // 2 years
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		DevMode:               devMode,
	}
}

// Handler returns the middleware. The header set is fixed when Handler is
// called.
func (sh *SecureHeaders) Handler(next http.Handler) http.Handler {
	static := sh.staticHeaders()
	hsts := sh.hstsValue()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		for name, value := range static {
			h.Set(name, value)
		}
		if hsts != "" && r.TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}

		next.ServeHTTP(w, r)
	})
}

func (sh *SecureHeaders) staticHeaders() map[string]string {
	csp := sh.ContentSecurityPolicy
	if csp == "" {
		directives := productionCSP
		if sh.DevMode {
			directives = developmentCSP
		}
		csp = strings.Join(directives, "; ")
	}
	permissions := sh.PermissionsPolicy
	if permissions == "" {
		permissions = defaultPermissionsPolicy
	}

	headers := map[string]string{
		"Content-Security-Policy": csp,
		"Permissions-Policy":      permissions,
	}
	for name, value := range map[string]string{
		"X-Frame-Options":        sh.XFrameOptions,
		"X-Content-Type-Options": sh.XContentTypeOptions,
		"Referrer-Policy":        sh.ReferrerPolicy,
	} {
		if value != "" {
			headers[name] = value
		}
	}
	return headers
}

func (sh *SecureHeaders) hstsValue() string {
	if sh.HSTSMaxAge <= 0 {
		return ""
	}
	v := "max-age=" + strconv.Itoa(sh.HSTSMaxAge)
	if sh.HSTSIncludeSubdomains {
		v += "; includeSubDomains"
	}
	return v
}
