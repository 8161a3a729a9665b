// Package errors defines the API error model: structured errors rendered
// as RFC 7807 problem details through go-chi/render.
package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Problem type URIs following RFC 7807.
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeParse           = "/errors/parse"
	TypePayloadTooLarge = "/errors/payload-too-large"
	TypeRateLimit       = "/errors/rate-limit"
	TypeTimeout         = "/errors/timeout"
	TypeInternal        = "/errors/internal"

	TypeSessionNotFound = "/errors/session/not-found"
	TypeColumnNotFound  = "/errors/column/not-found"
	TypeColumnKind      = "/errors/column/wrong-kind"
)

// APIError is a structured error carrying everything needed to render an
// RFC 7807 response.
type APIError struct {
	StatusCode int    `json:"status"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Detail     string `json:"detail,omitempty"`
	Instance   string `json:"instance,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	render.Status(r, e.StatusCode)
	return nil
}

// New creates an APIError.
func New(statusCode int, problemType, title, detail string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Type:       problemType,
		Title:      title,
		Detail:     detail,
	}
}

// Validation creates a 400 validation error.
func Validation(detail string) *APIError {
	return New(http.StatusBadRequest, TypeValidation, "Validation failed", detail)
}

// ValidationField creates a 400 validation error for a named field.
func ValidationField(field, detail string) *APIError {
	return New(http.StatusBadRequest, TypeValidation, "Validation failed",
		fmt.Sprintf("%s: %s", field, detail))
}

// Parse creates a 422 error for a malformed upload.
func Parse(err error) *APIError {
	return New(http.StatusUnprocessableEntity, TypeParse, "Malformed input file", err.Error())
}

// PayloadTooLarge creates a 413 error for an oversized upload.
func PayloadTooLarge(limit int64) *APIError {
	return New(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Upload too large",
		fmt.Sprintf("uploads are limited to %d bytes", limit))
}

// SessionNotFound creates a 404 error for an unknown or expired session.
func SessionNotFound(id string) *APIError {
	return New(http.StatusNotFound, TypeSessionNotFound, "Session not found",
		fmt.Sprintf("session %s does not exist or has expired", id))
}

// ColumnNotFound creates a 404 error for an unknown column.
func ColumnNotFound(column string) *APIError {
	return New(http.StatusNotFound, TypeColumnNotFound, "Column not found",
		fmt.Sprintf("column %q does not exist in this dataset", column))
}

// ColumnKind creates a 400 error for a column of the wrong type.
func ColumnKind(detail string) *APIError {
	return New(http.StatusBadRequest, TypeColumnKind, "Wrong column type", detail)
}

// Internal creates a 500 error.
func Internal(detail string) *APIError {
	return New(http.StatusInternalServerError, TypeInternal, "Internal server error", detail)
}
