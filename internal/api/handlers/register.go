package handlers

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/vigil/internal/loader"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/pipeline"
	"github.com/moolen/vigil/internal/store"
)

// RegisterHandlers registers all HTTP handlers on the given router
func RegisterHandlers(
	router *http.ServeMux,
	p *pipeline.Pipeline,
	st *store.Store,
	csvLoader *loader.CachingLoader,
	logger *logging.Logger,
	tracer trace.Tracer,
	withMethod func(string, http.HandlerFunc) http.HandlerFunc,
) {
	passHandler := NewPassHandler(p, csvLoader, logger, tracer)
	incidentHandler := NewIncidentHandler(st, logger, tracer)

	router.HandleFunc("/v1/pass", withMethod(http.MethodPost, passHandler.Handle))
	router.HandleFunc("/v1/incidents", withMethod(http.MethodGet, incidentHandler.HandleList))
	router.HandleFunc("/v1/incidents/", incidentHandler.HandleByID)
}
