package api

import (
	"net/http"
	"time"
)

// healthReporter is satisfied by health.ServiceHealthChecker.
type healthReporter interface {
	IsHealthy() bool
}

// HealthHandler serves the aggregated service health endpoint.
type HealthHandler struct {
	reporter healthReporter
}

func NewHealthHandler(r healthReporter) *HealthHandler {
	return &HealthHandler{reporter: r}
}

// CheckHealth handles GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if h.reporter == nil || h.reporter.IsHealthy() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "UP",
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status":    "DOWN",
		"message":   "One or more dependencies unavailable",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
