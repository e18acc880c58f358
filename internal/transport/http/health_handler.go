package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"figflow/internal/infrastructure"
)

// HealthHandler reports process and snapshot health.
type HealthHandler struct {
	service FlowServiceInterface
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service FlowServiceInterface, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health. The service is healthy once a
// snapshot is installed and degraded before the first successful load.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snapshotID := h.service.SnapshotID()
	status := "healthy"
	if snapshotID == "" {
		status = "degraded"
	}

	render.JSON(w, r, map[string]interface{}{
		"status":      status,
		"service":     infrastructure.ServiceName,
		"version":     infrastructure.ServiceVersion,
		"snapshot_id": snapshotID,
	})
}

// ReadinessCheck handles GET /api/health/ready. Readiness requires a loaded
// snapshot; before that the service cannot answer graph requests.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.service.SnapshotID() == "" {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{"ready": false})
		return
	}
	render.JSON(w, r, map[string]interface{}{"ready": true})
}

// LivenessCheck handles GET /api/health/live.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"alive": true})
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"service": infrastructure.ServiceName,
		"version": infrastructure.ServiceVersion,
	})
}
