package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creditpulse/internal/config"
	"creditpulse/internal/dataprocessing"
	apierrors "creditpulse/internal/errors"
	"creditpulse/internal/exporter"
	"creditpulse/internal/portfolio"
	"creditpulse/internal/services"
	"creditpulse/internal/shared/testutil"
	"creditpulse/pkg/contracts/domain"
)

// MockDashboardService is a testify mock of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) LoadFile(ctx context.Context, filename string, r io.Reader) (*services.Summary, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, filename, string(body))
	if s := args.Get(0); s != nil {
		return s.(*services.Summary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context) *services.Summary {
	return m.Called(ctx).Get(0).(*services.Summary)
}

func (m *MockDashboardService) Filters(ctx context.Context) *services.FilterState {
	return m.Called(ctx).Get(0).(*services.FilterState)
}

func (m *MockDashboardService) SetFilter(ctx context.Context, dimension, value string) (*services.Summary, error) {
	args := m.Called(ctx, dimension, value)
	if s := args.Get(0); s != nil {
		return s.(*services.Summary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) ClearFilters(ctx context.Context) *services.Summary {
	return m.Called(ctx).Get(0).(*services.Summary)
}

func (m *MockDashboardService) Distributions(ctx context.Context) domain.Distributions {
	return m.Called(ctx).Get(0).(domain.Distributions)
}

func (m *MockDashboardService) Records(ctx context.Context, page, pageSize int) (*services.RecordsPage, error) {
	args := m.Called(ctx, page, pageSize)
	if p := args.Get(0); p != nil {
		return p.(*services.RecordsPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) RiskMatrix() []domain.RiskGradeInfo {
	return m.Called().Get(0).([]domain.RiskGradeInfo)
}

func (m *MockDashboardService) Export(ctx context.Context, format exporter.Format, out io.Writer) (string, error) {
	args := m.Called(ctx, format)
	if body := args.String(0); body != "" {
		io.WriteString(out, body)
	}
	return args.String(1), args.Error(2)
}

func newTestRouter(t *testing.T, svc DashboardServiceInterface, upload config.UploadConfig) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewDashboardHandler(svc, upload, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/portfolio", h.Routes())
	return r
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	fw, err := mpw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mpw.Close())
	return &buf, mpw.FormDataContentType()
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDashboardHandler_Upload(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("LoadFile", mock.Anything, "cartera.csv", "a,b\n1,2\n").
		Return(&services.Summary{TotalCount: 1, FilteredCount: 1, Revision: 1}, nil)
	router := newTestRouter(t, svc, config.Default().Upload)

	body, contentType := multipartBody(t, "file", "cartera.csv", "a,b\n1,2\n")
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary services.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalCount)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_UploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"unsupported format", fmt.Errorf("%w: .pdf", services.ErrInvalidFileType), http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{"no header", dataprocessing.ErrNoHeaderRow, http.StatusUnprocessableEntity, "NO_HEADER_ROW"},
		{"too large", services.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			svc.On("LoadFile", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			router := newTestRouter(t, svc, config.Default().Upload)

			body, contentType := multipartBody(t, "file", "cartera.pdf", "x")
			req := httptest.NewRequest(http.MethodPost, "/api/portfolio/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			problem := decodeProblem(t, rec)
			assert.EqualValues(t, tt.wantStatus, problem["status"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, problem["error_code"])
			}
		})
	}
}

func TestDashboardHandler_UploadRequiresFile(t *testing.T) {
	svc := &MockDashboardService{}
	router := newTestRouter(t, svc, config.Default().Upload)

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio/upload", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		body, contentType := multipartBody(t, "other", "cartera.csv", "a")
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	svc.AssertNotCalled(t, "LoadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardHandler_ReadEndpoints(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Summary", mock.Anything).Return(&services.Summary{Revision: 4, Metrics: domain.KpiMetrics{ActiveCredits: 4}})
	svc.On("Distributions", mock.Anything).Return(domain.Distributions{Risk: []domain.ChartPoint{{Name: "A", Value: 10}}})
	svc.On("Filters", mock.Anything).Return(&services.FilterState{Options: domain.FilterOptions{Cities: []string{portfolio.AllOption, "BOGOTA"}}})
	svc.On("RiskMatrix").Return(portfolio.RiskMatrix())
	router := newTestRouter(t, svc, config.Default().Upload)

	tests := []struct {
		path string
		want string
	}{
		{"/api/portfolio/summary", `"active_credits":4`},
		{"/api/portfolio/distributions", `"risk":[{"name":"A","value":10}]`},
		{"/api/portfolio/filters", `"cities":["Todos","BOGOTA"]`},
		{"/api/portfolio/risk-matrix", `"grade":"A"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestDashboardHandler_SetFilter(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*MockDashboardService)
		wantStatus int
	}{
		{
			name: "valid",
			body: `{"dimension":"city","value":"BOGOTA"}`,
			setup: func(m *MockDashboardService) {
				m.On("SetFilter", mock.Anything, "city", "BOGOTA").
					Return(&services.Summary{Selection: domain.FilterSelection{City: "BOGOTA"}, FilteredCount: 2}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown dimension rejected by validation",
			body:       `{"dimension":"branch","value":"x"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"dimension":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "service rejects dimension",
			body: `{"dimension":"risk_level","value":"Z"}`,
			setup: func(m *MockDashboardService) {
				m.On("SetFilter", mock.Anything, "risk_level", "Z").Return(nil, portfolio.ErrUnknownDimension)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			if tt.setup != nil {
				tt.setup(svc)
			}
			router := newTestRouter(t, svc, config.Default().Upload)

			req := httptest.NewRequest(http.MethodPut, "/api/portfolio/filters", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_ClearFilters(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("ClearFilters", mock.Anything).Return(&services.Summary{FilteredCount: 4, TotalCount: 4})
	router := newTestRouter(t, svc, config.Default().Upload)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/portfolio/filters", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"filtered_count":4`)
}

func TestDashboardHandler_Records(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setup      func(*MockDashboardService)
		wantStatus int
	}{
		{
			name:  "defaults",
			query: "",
			setup: func(m *MockDashboardService) {
				m.On("Records", mock.Anything, 0, 10).Return(&services.RecordsPage{PageSize: 10, Total: 4, From: 1, To: 4, TotalPages: 1}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "explicit page",
			query: "?page=1&page_size=5",
			setup: func(m *MockDashboardService) {
				m.On("Records", mock.Anything, 1, 5).Return(&services.RecordsPage{Page: 1, PageSize: 5}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "non numeric page",
			query:      "?page=first",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "page out of range",
			query: "?page=9",
			setup: func(m *MockDashboardService) {
				m.On("Records", mock.Anything, 9, 10).Return(nil, services.ErrInvalidPage)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "page size not offered",
			query: "?page_size=7",
			setup: func(m *MockDashboardService) {
				m.On("Records", mock.Anything, 0, 7).Return(nil, services.ErrInvalidPageSize)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			if tt.setup != nil {
				tt.setup(svc)
			}
			router := newTestRouter(t, svc, config.Default().Upload)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/records"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Export(t *testing.T) {
	t.Run("csv download", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("Export", mock.Anything, exporter.FormatCSV).Return("cedmil\n1001\n", "Cartera_2024-05-01.csv", nil)
		router := newTestRouter(t, svc, config.Default().Upload)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/export/csv", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, exporter.FormatCSV.ContentType(), rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=Cartera_2024-05-01.csv`)
		assert.Equal(t, "cedmil\n1001\n", rec.Body.String())
	})

	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"unknown format", "/api/portfolio/export/pdf", nil, http.StatusBadRequest},
		{"no data", "/api/portfolio/export/xlsx", services.ErrNoDataLoaded, http.StatusConflict},
		{"writer failure", "/api/portfolio/export/xlsx", errors.New("zip: write failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			if tt.err != nil {
				svc.On("Export", mock.Anything, exporter.FormatXLSX).Return("", "", tt.err)
			}
			router := newTestRouter(t, svc, config.Default().Upload)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "json")
		})
	}
}

func TestDashboardHandler_EndToEnd(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewDashboardService(config.Default(), nil, nil, nil, logger)
	router := newTestRouter(t, svc, config.Default().Upload)

	body, contentType := multipartBody(t, "file", "cartera.csv", testutil.PortfolioCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPut, "/api/portfolio/filters", strings.NewReader(`{"dimension":"city","value":"BOGOTA"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary services.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.FilteredCount)
	assert.Equal(t, len(testutil.PortfolioRecords()), summary.TotalCount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/export/csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
}
