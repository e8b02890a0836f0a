package apiserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moolen/vigil/internal/api"
	"github.com/moolen/vigil/internal/api/handlers"
)

// registerHandlers registers all HTTP handlers
func (s *Server) registerHandlers() {
	s.registerHTTPHandlers()
	s.registerHealthEndpoints()
	s.registerMetricsEndpoint()
}

// registerHTTPHandlers registers the detection and incident API handlers
func (s *Server) registerHTTPHandlers() {
	tracer := s.getTracer("vigil.api")

	handlers.RegisterHandlers(
		s.router,
		s.pipeline,
		s.store,
		s.csvLoader,
		s.logger,
		tracer,
		s.withMethod,
	)
}

// registerHealthEndpoints registers health and readiness check endpoints
func (s *Server) registerHealthEndpoints() {
	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.HandleFunc("/readyz", s.handleReady)
}

// registerMetricsEndpoint exposes the Prometheus registry, when one is
// configured.
func (s *Server) registerMetricsEndpoint() {
	if s.registry == nil {
		s.logger.Debug("No metrics registry configured, skipping /metrics endpoint")
		return
	}
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "healthy",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, response)
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ready := s.readinessChecker != nil && s.readinessChecker.IsReady()

	response := map[string]interface{}{
		"ready": ready,
	}

	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = api.WriteJSON(w, response)
}
