package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditpulse/internal/config"
	"creditpulse/internal/services"
	"creditpulse/internal/shared/testutil"
	"creditpulse/pkg/contracts/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Telemetry.EnableMetrics = false
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

// testLogger is detached from t; hub goroutines may log after a test returns.
func testLogger() *slog.Logger {
	return slog.New(testutil.NewBufferedSlogHandler(nil))
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(app.Hub.Stop)
	return app
}

func serve(app *Application, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func uploadRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	fw, err := mpw.CreateFormFile("file", "cartera.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, testutil.PortfolioCSV)
	require.NoError(t, err)
	require.NoError(t, mpw.Close())

	req, err := http.NewRequest(http.MethodPost, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return req
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(t, cfg)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Hub)
	assert.NotNil(t, app.Dashboard)
	assert.NotNil(t, app.Health)
	assert.Equal(t, ":0", app.Server.Addr)
	assert.Equal(t, cfg.Server.MaxHeaderBytes, app.Server.MaxHeaderBytes)

	for _, dir := range []string{app.Paths.DataDir, app.Paths.ExportsDir, app.Paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
	assert.True(t, strings.HasPrefix(app.Paths.DataDir, cfg.Paths.BaseDir))
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK},
		{"liveness", http.MethodGet, "/api/health/live", http.StatusOK},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK},
		{"version", http.MethodGet, "/api/version", http.StatusOK},
		{"websocket stats", http.MethodGet, "/api/websocket/stats", http.StatusOK},
		{"risk matrix", http.MethodGet, "/api/portfolio/risk-matrix", http.StatusOK},
		{"records without data", http.MethodGet, "/api/portfolio/records", http.StatusOK},
		{"bad page size", http.MethodGet, "/api/portfolio/records?page_size=7", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/api/portfolio/filters", http.StatusMethodNotAllowed},
		{"metrics disabled", http.MethodGet, "/metrics", http.StatusNotFound},
		{"missing index", http.MethodGet, "/", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestApplication_ProblemResponses(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	rec := serve(app, http.MethodGet, "/api/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/errors/not-found", body["type"])
	assert.NotEmpty(t, body["trace_id"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestApplication_SecurityHeaders(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	rec := serve(app, http.MethodGet, "/api/health", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestApplication_CORS(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.AllowedOrigins = []string{"http://dashboard.local"}
	app := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio/summary", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://elsewhere.local")
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, "/api/health", nil).Code)
}

func TestApplication_StaticFiles(t *testing.T) {
	cfg := testConfig(t)
	webDir := filepath.Join(cfg.Paths.BaseDir, "web")
	require.NoError(t, os.MkdirAll(filepath.Join(webDir, "static"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html>pulse</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "static", "app.js"), []byte("console.log(1)"), 0644))
	app := newTestApp(t, cfg)

	rec := serve(app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pulse")

	rec = serve(app, http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())
}

func TestApplication_UploadFlow(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, server.URL+"/api/portfolio/upload"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := serve(app, http.MethodGet, "/api/portfolio/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary services.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, len(testutil.PortfolioRecords()), summary.TotalCount)
	assert.Equal(t, summary.TotalCount, summary.FilteredCount)
}

func TestApplication_WebSocketNotifications(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Development = true
	app := newTestApp(t, cfg)
	app.Hub.Start()

	server := httptest.NewServer(app.Router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readMessage := func() events.WebSocketMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg events.WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	assert.Equal(t, events.MessageTypeConnect, readMessage().Type)
	assert.Eventually(t, func() bool { return app.Hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.DefaultClient.Do(uploadRequest(t, server.URL+"/api/portfolio/upload"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, events.MessageTypeDatasetLoaded, readMessage().Type)
}

func TestApplication_PreloadLatest(t *testing.T) {
	t.Run("empty data directory", func(t *testing.T) {
		app := newTestApp(t, testConfig(t))

		loaded, err := app.PreloadLatest(context.Background())
		require.NoError(t, err)
		assert.False(t, loaded)
	})

	t.Run("newest file wins", func(t *testing.T) {
		app := newTestApp(t, testConfig(t))

		older := filepath.Join(app.Paths.DataDir, "old.csv")
		require.NoError(t, os.WriteFile(older, []byte("not,a,portfolio\n"), 0644))
		past := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(older, past, past))
		require.NoError(t, os.WriteFile(filepath.Join(app.Paths.DataDir, "cartera.csv"), []byte(testutil.PortfolioCSV), 0644))

		loaded, err := app.PreloadLatest(context.Background())
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Equal(t, len(testutil.PortfolioRecords()), app.Dashboard.Summary(context.Background()).TotalCount)
	})

	t.Run("unreadable portfolio", func(t *testing.T) {
		app := newTestApp(t, testConfig(t))
		require.NoError(t, os.WriteFile(filepath.Join(app.Paths.DataDir, "broken.csv"), nil, 0644))

		loaded, err := app.PreloadLatest(context.Background())
		assert.Error(t, err)
		assert.False(t, loaded)
	})
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
