package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"creditpulse/internal/config"
	apierrors "creditpulse/internal/errors"
	"creditpulse/internal/exporter"
	mw "creditpulse/internal/middleware"
	"creditpulse/internal/services"
	api "creditpulse/pkg/contracts/api/v1"
)

// uploadFormField is the multipart field carrying the portfolio file
const uploadFormField = "file"

// multipartOverhead is the slack allowed on top of the file limit for
// multipart boundaries and headers
const multipartOverhead = 1 << 20

// DashboardHandler serves the portfolio dashboard API with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *mw.Validator
	query        *mw.QueryParamValidator
	maxUpload    int64
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, upload config.UploadConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	logger = logger.With(slog.String("component", "dashboard_handler"))
	return &DashboardHandler{
		service:      service,
		logger:       logger,
		errorHandler: errorHandler,
		validator:    mw.NewValidator(),
		query:        mw.NewQueryParamValidator(logger, errorHandler),
		maxUpload:    upload.MaxBytes,
	}
}

// Routes returns the portfolio routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/distributions", h.GetDistributions)
	r.Get("/records", h.GetRecords)
	r.Get("/risk-matrix", h.GetRiskMatrix)
	r.Get("/filters", h.GetFilters)
	r.Get("/export/{format}", h.Export)

	// State-changing routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuditLog(h.logger))
		r.Post("/upload", h.Upload)
		r.With(mw.ContentTypeValidator(h.errorHandler, "application/json")).Put("/filters", h.SetFilter)
		r.Delete("/filters", h.ClearFilters)
	})

	return r
}

// Upload handles POST /api/portfolio/upload (multipart field "file")
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFormField, "a multipart/form-data body with a file field is required"))
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.errorHandler.HandleError(w, r, uploadReadError(err))
			return
		}
		if part.FormName() != uploadFormField {
			part.Close()
			continue
		}

		filename := part.FileName()
		summary, err := h.service.LoadFile(ctx, filename, part)
		part.Close()
		if err != nil {
			h.errorHandler.HandleError(w, r, uploadReadError(err))
			return
		}

		h.logger.InfoContext(ctx, "portfolio uploaded",
			slog.String("request_id", middleware.GetReqID(ctx)),
			slog.String("filename", filename),
			slog.Int("record_count", summary.TotalCount))
		render.JSON(w, r, summary)
		return
	}

	h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFormField, "file is required"))
}

// uploadReadError maps a body size overrun to the file size error
func uploadReadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit %d bytes", services.ErrFileTooLarge, maxErr.Limit)
	}
	return err
}

// GetSummary handles GET /api/portfolio/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Summary(r.Context()))
}

// GetDistributions handles GET /api/portfolio/distributions
func (h *DashboardHandler) GetDistributions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Distributions(r.Context()))
}

// GetFilters handles GET /api/portfolio/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Filters(r.Context()))
}

// SetFilter handles PUT /api/portfolio/filters
func (h *DashboardHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req api.FilterUpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.SetFilter(r.Context(), req.Dimension, req.Value)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// ClearFilters handles DELETE /api/portfolio/filters
func (h *DashboardHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.ClearFilters(r.Context()))
}

// GetRecords handles GET /api/portfolio/records?page=&page_size=
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	page, ok := h.query.ValidateInt(w, r, "page", 0, 1<<30, 0)
	if !ok {
		return
	}
	pageSize, ok := h.query.ValidateInt(w, r, "page_size", 1, 1000, config.DefaultPageSize)
	if !ok {
		return
	}

	result, err := h.service.Records(r.Context(), page, pageSize)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// GetRiskMatrix handles GET /api/portfolio/risk-matrix
func (h *DashboardHandler) GetRiskMatrix(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.RiskMatrix())
}

// Export handles GET /api/portfolio/export/{format}. The file is built in
// memory first so failures still produce a problem response.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	filename, err := h.service.Export(ctx, format, &buf)
	if err != nil {
		if errors.Is(err, services.ErrNoDataLoaded) || errors.Is(err, exporter.ErrUnsupportedFormat) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ExportError(err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(ctx, "export download interrupted",
			slog.String("error", err.Error()),
			slog.String("filename", filename))
	}
}
