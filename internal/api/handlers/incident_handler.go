package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/vigil/internal/api"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/models"
	"github.com/moolen/vigil/internal/store"
)

// IncidentListResponse is the body of a range query response.
type IncidentListResponse struct {
	Incidents []models.Incident `json:"incidents"`
	Count     int               `json:"count"`
}

// IncidentHandler handles /v1/incidents requests
type IncidentHandler struct {
	store  *store.Store
	logger *logging.Logger
	tracer trace.Tracer
}

// NewIncidentHandler creates a new handler
func NewIncidentHandler(st *store.Store, logger *logging.Logger, tracer trace.Tracer) *IncidentHandler {
	return &IncidentHandler{
		store:  st,
		logger: logger,
		tracer: tracer,
	}
}

// HandleList processes GET /v1/incidents range queries
func (h *IncidentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(r.Context(), "incidents.HandleList")
		defer span.End()
	}

	query := r.URL.Query()

	start, err := api.ParseOptionalTimestamp(query.Get("start"), "start", time.Unix(0, 0).UTC())
	if err != nil {
		h.writeParseError(w, span, err)
		return
	}
	// Far-future default keeps an endless range query simple to express.
	end, err := api.ParseOptionalTimestamp(query.Get("end"), "end", time.Now().UTC().Add(100*365*24*time.Hour))
	if err != nil {
		h.writeParseError(w, span, err)
		return
	}
	if !start.Before(end) {
		api.WriteAPIError(w, api.NewValidationError("start must be before end"))
		return
	}

	dimension := query.Get("dimension")

	incidents := h.store.Query(models.TimeWindow{Start: start, End: end}, dimension)
	if span != nil {
		span.SetAttributes(attribute.Int("vigil.incidents", len(incidents)))
	}

	_ = api.WriteSuccess(w, IncidentListResponse{
		Incidents: incidents,
		Count:     len(incidents),
	})
}

// HandleByID dispatches /v1/incidents/{id} and /v1/incidents/{id}/resolve.
func (h *IncidentHandler) HandleByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/incidents/")
	id, verb, hasVerb := strings.Cut(rest, "/")
	if id == "" {
		api.WriteAPIError(w, api.NewValidationError("incident id is required"))
		return
	}

	switch {
	case !hasVerb && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case hasVerb && verb == "resolve" && r.Method == http.MethodPost:
		h.handleResolve(w, r, id)
	case !hasVerb || verb == "resolve":
		api.WriteError(w, http.StatusMethodNotAllowed, string(api.ErrorCodeMethodNotAllowed),
			"method "+r.Method+" not allowed for "+r.URL.Path)
	default:
		api.WriteAPIError(w, api.NewNotFoundError("unknown endpoint: %s", r.URL.Path))
	}
}

func (h *IncidentHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(r.Context(), "incidents.handleGet")
		defer span.End()
		span.SetAttributes(attribute.String("vigil.incident_id", id))
	}

	incident, err := h.store.Get(id)
	if err != nil {
		if store.IsNotFound(err) {
			api.WriteAPIError(w, api.NewNotFoundError("incident %s not found", id))
			return
		}
		h.logger.Error("Incident lookup failed: %v", err)
		api.WriteAPIError(w, api.NewInternalServerError("incident lookup failed"))
		return
	}

	_ = api.WriteSuccess(w, incident)
}

func (h *IncidentHandler) handleResolve(w http.ResponseWriter, r *http.Request, id string) {
	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(r.Context(), "incidents.handleResolve")
		defer span.End()
		span.SetAttributes(attribute.String("vigil.incident_id", id))
	}

	incident, err := h.store.Resolve(id)
	if err != nil {
		if store.IsNotFound(err) {
			api.WriteAPIError(w, api.NewNotFoundError("incident %s not found", id))
			return
		}
		h.logger.Error("Incident resolve failed: %v", err)
		api.WriteAPIError(w, api.NewInternalServerError("incident resolve failed"))
		return
	}

	h.logger.Debug("Incident %s resolved", id)
	_ = api.WriteSuccess(w, incident)
}

func (h *IncidentHandler) writeParseError(w http.ResponseWriter, span trace.Span, err error) {
	if span != nil {
		span.RecordError(err)
	}
	if apiErr, ok := err.(*api.APIError); ok {
		api.WriteAPIError(w, apiErr)
		return
	}
	api.WriteAPIError(w, api.NewValidationError("%v", err))
}
