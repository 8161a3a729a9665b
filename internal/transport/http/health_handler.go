package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler serves liveness and version information.
type HealthHandler struct {
	version  string
	started  time.Time
	sessions func() int
}

// NewHealthHandler creates the health handler. sessions reports the live
// session count and may be nil.
func NewHealthHandler(version string, sessions func() int) *HealthHandler {
	return &HealthHandler{
		version:  version,
		started:  time.Now(),
		sessions: sessions,
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetHealth)
	return r
}

// GetHealth handles GET /api/health.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	}
	if h.sessions != nil {
		payload["sessions"] = h.sessions()
	}
	render.JSON(w, r, payload)
}
