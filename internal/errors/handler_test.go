package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditpulse/internal/dataprocessing"
	"creditpulse/internal/dataset"
	"creditpulse/internal/exporter"
	"creditpulse/internal/portfolio"
	"creditpulse/internal/services"
	"creditpulse/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{"empty dataset", fmt.Errorf("load: %w", dataset.ErrEmptyDataset), http.StatusUnprocessableEntity, TypeEmptyDataset, "EMPTY_DATASET"},
		{"unknown dimension", fmt.Errorf("%w: %q", portfolio.ErrUnknownDimension, "color"), http.StatusBadRequest, TypeUnknownDimension, "UNKNOWN_DIMENSION"},
		{"unsupported upload", dataprocessing.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "UNSUPPORTED_FORMAT"},
		{"invalid file type", services.ErrInvalidFileType, http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "UNSUPPORTED_FORMAT"},
		{"no header", dataprocessing.ErrNoHeaderRow, http.StatusUnprocessableEntity, TypeNoHeaderRow, "NO_HEADER_ROW"},
		{"too large", services.ErrFileTooLarge, http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "PAYLOAD_TOO_LARGE"},
		{"no data", services.ErrNoDataLoaded, http.StatusConflict, TypeNoDataLoaded, "NO_DATA_LOADED"},
		{"invalid page", services.ErrInvalidPage, http.StatusBadRequest, TypeInvalidPage, "INVALID_PAGE"},
		{"export format", exporter.ErrUnsupportedFormat, http.StatusBadRequest, TypeExportFormat, "UNSUPPORTED_EXPORT_FORMAT"},
		{"api error", New(http.StatusBadRequest, CodeInvalidParameter, "page must be numeric"), http.StatusBadRequest, TypeValidation, "INVALID_PARAMETER"},
		{"media type", New(http.StatusUnsupportedMediaType, CodeUnsupportedMediaType, "unsupported"), http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "UNSUPPORTED_MEDIA_TYPE"},
		{"export wrapping timeout", ExportError(context.DeadlineExceeded), http.StatusGatewayTimeout, TypeTimeout, ""},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout, ""},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPut, "/api/portfolio/filters", nil)
			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/portfolio/filters", body["instance"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	h := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Zero(t, w.Body.Len())
}

func TestErrorHandler_LogLevels(t *testing.T) {
	logger, records := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodGet, "/api/portfolio/records", nil)

	h.HandleError(httptest.NewRecorder(), r, services.ErrInvalidPage)
	h.HandleError(httptest.NewRecorder(), r, fmt.Errorf("boom"))

	assert.Len(t, records.GetRecordsByLevel(slog.LevelWarn), 1)
	assert.Len(t, records.GetRecordsByLevel(slog.LevelError), 1)
	testutil.AssertLogAttr(t, records, "component", "error_handler")
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	h := NewErrorHandler(nil, true)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	assert.Contains(t, decodeProblem(t, w), "stack")
}

func TestErrorHandler_RecoveryMiddleware(t *testing.T) {
	logger, records := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	panicking := h.RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map")
	}))

	w := httptest.NewRecorder()
	panicking.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/portfolio/summary", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, w)["type"])
	testutil.AssertLogContains(t, records, slog.LevelError, "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(nil, false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodPatch, "/api/portfolio/filters", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w)["detail"], "PATCH")
}
