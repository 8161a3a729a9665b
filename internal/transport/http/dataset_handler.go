package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"tabcli/internal/chart"
	apierrors "tabcli/internal/errors"
)

// DatasetHandler exposes the dataset pipeline over REST.
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	maxBytes     int64
}

// NewDatasetHandler creates the handler.
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxBytes int64) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
		maxBytes:     maxBytes,
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Get("/", h.Preview)
		r.Get("/missing", h.Missing)
		r.Post("/clean", h.Clean)
		r.Get("/stats", h.Stats)
		r.Get("/charts/histogram", h.Histogram)
		r.Get("/charts/bar", h.BarChart)
	})

	return r
}

// SessionCtx validates the session ID path parameter.
func (h *DatasetHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.validate.Var(id, "required,uuid4"); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ValidationField("id", "must be a session UUID"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets. The dataset file arrives as the "file"
// part of a multipart form.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.PayloadTooLarge(h.maxBytes))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ValidationField("body", "malformed multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ValidationField("file", "a multipart \"file\" part is required"))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, envelope(result))
}

// Preview handles GET /api/datasets/{id}?rows=N.
func (h *DatasetHandler) Preview(w http.ResponseWriter, r *http.Request) {
	rows, err := queryInt(r, "rows", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ValidationField("rows", "must be a positive integer"))
		return
	}

	result, err := h.service.Preview(r.Context(), chi.URLParam(r, "id"), rows)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, envelope(result))
}

// Missing handles GET /api/datasets/{id}/missing.
func (h *DatasetHandler) Missing(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MissingValues(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, envelope(report))
}

// Clean handles POST /api/datasets/{id}/clean.
func (h *DatasetHandler) Clean(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Clean(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, envelope(result))
}

// Stats handles GET /api/datasets/{id}/stats.
func (h *DatasetHandler) Stats(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.service.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, envelope(analysis))
}

// histogramParams are the validated query parameters of the histogram
// endpoint.
type histogramParams struct {
	Column string `validate:"required"`
	Bins   int    `validate:"min=0,max=200"`
}

// Histogram handles GET /api/datasets/{id}/charts/histogram?column=&bins=.
func (h *DatasetHandler) Histogram(w http.ResponseWriter, r *http.Request) {
	bins, err := queryInt(r, "bins", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ValidationField("bins", "must be a positive integer"))
		return
	}
	params := histogramParams{Column: r.URL.Query().Get("column"), Bins: bins}
	if err := h.validate.Struct(params); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ValidationField("column", "a numeric column name is required; bins may not exceed 200"))
		return
	}

	hist, err := h.service.Histogram(r.Context(), chi.URLParam(r, "id"), params.Column, params.Bins)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, envelope(hist))
}

// barParams are the validated query parameters of the bar chart endpoint.
type barParams struct {
	Column string `validate:"required"`
	Limit  int    `validate:"min=0,max=200"`
}

// BarChart handles GET /api/datasets/{id}/charts/bar?column=&limit=.
func (h *DatasetHandler) BarChart(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ValidationField("limit", "must be a positive integer"))
		return
	}
	params := barParams{Column: r.URL.Query().Get("column"), Limit: limit}
	if err := h.validate.Struct(params); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ValidationField("column", "a categorical column name is required; limit may not exceed 200"))
		return
	}
	if params.Limit == 0 {
		params.Limit = chart.DefaultTopN
	}

	bars, err := h.service.BarChart(r.Context(), chi.URLParam(r, "id"), params.Column, params.Limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, envelope(bars))
}

// envelope wraps payloads in the standard success response shape.
func envelope(data any) map[string]any {
	return map[string]any{
		"status": "success",
		"data":   data,
	}
}

// queryInt parses an optional integer query parameter, returning def when
// the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
