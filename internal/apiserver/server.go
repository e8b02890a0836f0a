package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/moolen/vigil/internal/loader"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/pipeline"
	"github.com/moolen/vigil/internal/store"
)

// ReadinessChecker is an interface for checking component readiness
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker is a ReadinessChecker that always returns true.
// Use this when no readiness checking is needed (e.g., when the detection
// config watcher is disabled).
type NoOpReadinessChecker struct{}

// IsReady always returns true for the no-op checker.
func (n *NoOpReadinessChecker) IsReady() bool {
	return true
}

// TracerSource hands out tracers for instrumenting handlers.
type TracerSource interface {
	GetTracer(name string) trace.Tracer
	IsEnabled() bool
}

// Server exposes the detection pipeline and the incident store over HTTP.
type Server struct {
	port             int
	server           *http.Server
	logger           *logging.Logger
	pipeline         *pipeline.Pipeline
	store            *store.Store
	csvLoader        *loader.CachingLoader
	registry         *prometheus.Registry
	router           *http.ServeMux
	readinessChecker ReadinessChecker
	tracerSource     TracerSource
}

// Options configures the API server.
type Options struct {
	Port             int
	Pipeline         *pipeline.Pipeline
	Store            *store.Store
	Loader           *loader.CachingLoader
	Registry         *prometheus.Registry
	ReadinessChecker ReadinessChecker
	TracerSource     TracerSource
}

// New creates an API server. The pipeline, store and loader are required;
// readiness checking and tracing fall back to no-ops when absent.
func New(opts Options) *Server {
	s := &Server{
		port:             opts.Port,
		logger:           logging.GetLogger("api"),
		pipeline:         opts.Pipeline,
		store:            opts.Store,
		csvLoader:        opts.Loader,
		registry:         opts.Registry,
		router:           http.NewServeMux(),
		readinessChecker: opts.ReadinessChecker,
		tracerSource:     opts.TracerSource,
	}

	if s.readinessChecker == nil {
		s.readinessChecker = &NoOpReadinessChecker{}
	}

	s.registerHandlers()
	s.configureHTTPServer(opts.Port)

	return s
}

// configureHTTPServer creates the HTTP server with CORS middleware and timeouts
func (s *Server) configureHTTPServer(port int) {
	handler := s.corsMiddleware(s.router)

	// Pass requests over large CSV files can take a while to answer.
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// getTracer returns a tracer for the given name, a no-op one when tracing
// is not configured.
func (s *Server) getTracer(name string) trace.Tracer {
	if s.tracerSource == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return s.tracerSource.GetTracer(name)
}

// Start implements the lifecycle.Component interface.
// Starts the HTTP server and begins listening for requests.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("API server started and listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface.
// Gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("API server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("API server shutdown timeout")
		return ctx.Err()
	}
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() int {
	return s.port
}

// Name implements the lifecycle.Component interface
func (s *Server) Name() string {
	return "API Server"
}
