package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"tabcli/internal/dataset"
	"tabcli/internal/infrastructure"
	"tabcli/internal/session"
)

// ErrorHandler logs errors and renders them as RFC 7807 problem details.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates an error handler. A nil logger falls back to the
// application logger.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ErrorHandler{logger: logger.With(slog.String("component", "error_handler"))}
}

// HandleError converts any error to a problem response and writes it.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.toProblem(err, r)
	problem.Instance = r.URL.Path
	problem.TraceID = infrastructure.GetTraceID(r.Context())

	level := slog.LevelWarn
	if problem.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	WriteProblem(w, problem)
}

// WriteProblem writes an APIError as an RFC 7807 response. The header is
// set directly because chi/render would replace it with application/json.
func WriteProblem(w http.ResponseWriter, problem *APIError) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.StatusCode)
	_ = json.NewEncoder(w).Encode(problem)
}

// toProblem maps known error values and types onto API errors; anything
// unrecognized becomes a 500 with a generic detail.
func (h *ErrorHandler) toProblem(err error, r *http.Request) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var parseErr *dataset.ParseError
	if stderrors.As(err, &parseErr) {
		return Parse(parseErr)
	}

	if stderrors.Is(err, session.ErrNotFound) {
		return New(http.StatusNotFound, TypeSessionNotFound, "Session not found", err.Error())
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return New(http.StatusGatewayTimeout, TypeTimeout, "Request timeout",
			"the request took too long to process and was cancelled")
	}

	return Internal("an unexpected error occurred")
}
