package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"tradepulse/internal/infrastructure"
)

// HealthHandler serves liveness and version endpoints.
type HealthHandler struct {
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now().UTC()}
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "healthy",
		"service": infrastructure.ServiceName,
		"uptime":  time.Since(h.started).String(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"service": infrastructure.ServiceName,
		"version": infrastructure.ServiceVersion,
	})
}
