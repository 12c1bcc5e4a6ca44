package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/service"
)

// NewRouter wires all HTTP routes over the memory service.
func NewRouter(svc *service.MemoryService, reporter healthReporter, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(Recovery(log))

	memoryHandler := NewMemoryHandler(svc)
	healthHandler := NewHealthHandler(reporter)

	// Health and metrics
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Turn storage and retrieval
	router.HandleFunc("/api/tenants/{tenantId}/users/{userId}/turns", memoryHandler.StoreTurn).Methods("POST")
	router.HandleFunc("/api/tenants/{tenantId}/users/{userId}/retrieve", memoryHandler.Retrieve).Methods("POST")
	router.HandleFunc("/api/tenants/{tenantId}/users/{userId}/history", memoryHandler.History).Methods("GET")

	// Lifecycle
	router.HandleFunc("/api/tenants/{tenantId}/sweep", memoryHandler.Sweep).Methods("POST")
	router.HandleFunc("/api/tenants/{tenantId}/sweeps", memoryHandler.Sweeps).Methods("GET")

	return router
}
