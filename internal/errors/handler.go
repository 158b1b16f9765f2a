package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"creditpulse/internal/dataprocessing"
	"creditpulse/internal/dataset"
	"creditpulse/internal/exporter"
	"creditpulse/internal/portfolio"
	"creditpulse/internal/services"
)

// Common error types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeTimeout          = "/errors/timeout"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
)

// Domain-specific error types
const (
	TypeEmptyDataset      = "/errors/dataset/empty"
	TypeNoDataLoaded      = "/errors/dataset/not-loaded"
	TypeUnknownDimension  = "/errors/filters/unknown-dimension"
	TypeUnsupportedFormat = "/errors/upload/unsupported-format"
	TypeNoHeaderRow       = "/errors/upload/no-header-row"
	TypeInvalidPage       = "/errors/records/invalid-page"
	TypeExportFormat      = "/errors/export/unsupported-format"
)

// domainProblem maps a sentinel error to its problem representation.
type domainProblem struct {
	target    error
	status    int
	typ       string
	title     string
	errorCode string
}

var domainProblems = []domainProblem{
	{dataset.ErrEmptyDataset, http.StatusUnprocessableEntity, TypeEmptyDataset, "Empty Dataset", "EMPTY_DATASET"},
	{dataprocessing.ErrNoHeaderRow, http.StatusUnprocessableEntity, TypeNoHeaderRow, "No Header Row", "NO_HEADER_ROW"},
	{dataprocessing.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "Unsupported File Format", "UNSUPPORTED_FORMAT"},
	{services.ErrInvalidFileType, http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "Unsupported File Format", "UNSUPPORTED_FORMAT"},
	{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large", "PAYLOAD_TOO_LARGE"},
	{services.ErrNoDataLoaded, http.StatusConflict, TypeNoDataLoaded, "No Data Loaded", "NO_DATA_LOADED"},
	{portfolio.ErrUnknownDimension, http.StatusBadRequest, TypeUnknownDimension, "Unknown Filter Dimension", "UNKNOWN_DIMENSION"},
	{services.ErrInvalidPage, http.StatusBadRequest, TypeInvalidPage, "Invalid Page", "INVALID_PAGE"},
	{services.ErrInvalidPageSize, http.StatusBadRequest, TypeInvalidPage, "Invalid Page Size", "INVALID_PAGE_SIZE"},
	{exporter.ErrUnsupportedFormat, http.StatusBadRequest, TypeExportFormat, "Unsupported Export Format", "UNSUPPORTED_EXPORT_FORMAT"},
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError renders err as a problem response. Server-side failures log
// at error level and may carry a stack trace in development.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		if h.includeStack {
			problem.WithExtension("stack", string(debug.Stack()))
		}
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	h.respond(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	for _, dp := range domainProblems {
		if errors.Is(err, dp.target) {
			return NewProblemDetails(dp.status, dp.typ, dp.title, err.Error(), r.URL.Path).
				WithExtension("error_code", dp.errorCode)
		}
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problem := NewProblemDetails(
		apiErr.StatusCode,
		apiErr.ProblemType(),
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// HandlePanic logs a recovered panic and answers 500.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	stack := string(debug.Stack())
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", stack)
	}
	h.respond(w, r, problem)
}

// NotFound is the router's 404 handler.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	))
}

// MethodNotAllowed is the router's 405 handler.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	))
}

// RecoveryMiddleware turns panics into 500 problems. http.ErrAbortHandler is
// re-raised so net/http can abort the response.
func (h *ErrorHandler) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// respond stamps the request ID as trace_id and writes the problem.
func (h *ErrorHandler) respond(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	problem.WithExtension("trace_id", middleware.GetReqID(r.Context()))
	render.Render(w, r, problem)
}
