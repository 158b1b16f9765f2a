package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditpulse/internal/services"
	"creditpulse/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dashboard := services.NewDashboardService(nil, nil, nil, nil, logger)

	tests := []struct {
		name       string
		exportsDir string
		path       string
		wantStatus int
		wantField  string
	}{
		{"health", t.TempDir(), "/", http.StatusOK, "ok"},
		{"live", t.TempDir(), "/live", http.StatusOK, "alive"},
		{"ready", t.TempDir(), "/ready", http.StatusOK, "ready"},
		{"not ready", filepath.Join(t.TempDir(), "missing"), "/ready", http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := &services.MockClientCounter{}
			clients.On("ClientCount").Return(2).Maybe()
			svc := services.NewHealthService(tt.exportsDir, dashboard, clients, logger)
			h := NewHealthHandler(svc, logger)

			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantField, body.Status)
		})
	}
}

func TestHealthHandlerVersion(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewHealthService(t.TempDir(), nil, nil, logger)
	h := NewHealthHandler(svc, logger)

	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"api_version":"v1"`)
}
