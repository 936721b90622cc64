package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"travelboard/internal/infrastructure"
)

// MetricsHandler exposes Prometheus metrics and a JSON runtime snapshot
type MetricsHandler struct {
	prometheus http.Handler
	startTime  time.Time
}

// NewMetricsHandler creates a metrics handler. prometheus may be nil when
// metric export is disabled.
func NewMetricsHandler(prometheus http.Handler, startTime time.Time) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, startTime: startTime}
}

// Register mounts /metrics and /api/metrics/system on r
func (h *MetricsHandler) Register(r chi.Router) {
	if h.prometheus != nil {
		r.Handle("/metrics", h.prometheus)
	}
	r.Get("/api/metrics/system", h.GetSystem)
}

// GetSystem returns runtime statistics
func (h *MetricsHandler) GetSystem(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, infrastructure.CollectSystemStats(h.startTime))
}
