package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in the error_code extension of problem responses.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeInvalidParameter     = "INVALID_PARAMETER"
	CodeMissingContentType   = "MISSING_CONTENT_TYPE"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeNotFound             = "NOT_FOUND"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	CodeExportFailed         = "EXPORT_FAILED"
)

// problemTypeByCode picks the problem type URI for an APIError.
var problemTypeByCode = map[string]string{
	CodeInvalidRequest:       TypeValidation,
	CodeValidationFailed:     TypeValidation,
	CodeInvalidParameter:     TypeValidation,
	CodeMissingContentType:   TypeValidation,
	CodeUnsupportedMediaType: TypeUnsupportedFormat,
	CodeNotFound:             TypeNotFound,
	CodePayloadTooLarge:      TypePayloadTooLarge,
	CodeRateLimited:          TypeRateLimit,
}

// APIError is an error raised by the HTTP layer itself, as opposed to the
// domain sentinels mapped in domainProblems.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ProblemType returns the problem type URI for the error code.
func (e *APIError) ProblemType() string {
	if t, ok := problemTypeByCode[e.ErrorCode]; ok {
		return t
	}
	return TypeInternal
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors groups every rejected field of one request.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

// InvalidRequestWithError reports a malformed body or form, keeping err as
// the cause.
func InvalidRequestWithError(err error) *APIError {
	e := NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
	e.cause = err
	return e
}

// ErrValidation rejects a single field.
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationErrors{Errors: errs})
}

// ExportError reports a failure while writing an export file.
func ExportError(err error) *APIError {
	e := NewWithDetails(http.StatusInternalServerError, CodeExportFailed, "Failed to build export file", err.Error())
	e.cause = err
	return e
}
