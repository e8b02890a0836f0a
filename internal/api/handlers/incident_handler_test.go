package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/moolen/vigil/internal/api"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/models"
	"github.com/moolen/vigil/internal/store"
)

func seedIncident(t *testing.T, st *store.Store, start time.Time, dimension string) models.Incident {
	t.Helper()
	incident, err := st.Append(models.IncidentCandidate{
		Window:    models.TimeWindow{Start: start, End: start.Add(5 * time.Minute)},
		Dimension: dimension,
		Events: []models.AnomalyEvent{{
			Detector: models.DetectorEWMA,
			Metric:   models.MetricFailedCount,
			Window:   models.TimeWindow{Start: start, End: start.Add(5 * time.Minute)},
			Severity: models.SeverityHigh,
		}},
	}, models.RootCauseVerdict{
		RootCause:  models.RootCauseErrorRateSurge,
		Confidence: 0.7,
		RuleID:     "error-rate-surge",
	})
	require.NoError(t, err)
	return incident
}

func newIncidentHandler(st *store.Store) *IncidentHandler {
	return NewIncidentHandler(st, logging.GetLogger("test"), noop.NewTracerProvider().Tracer("test"))
}

func doRequest(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleList(t *testing.T) {
	st := store.New()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	early := seedIncident(t, st, t0, "US")
	late := seedIncident(t, st, t0.Add(24*time.Hour), "")

	h := newIncidentHandler(st)

	t.Run("no filters returns everything", func(t *testing.T) {
		rec := doRequest(h.HandleList, http.MethodGet, "/v1/incidents")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp IncidentListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, early.ID, resp.Incidents[0].ID)
		assert.Equal(t, late.ID, resp.Incidents[1].ID)
	})

	t.Run("time range filter", func(t *testing.T) {
		rec := doRequest(h.HandleList, http.MethodGet,
			"/v1/incidents?start=2026-03-01T12:00:00&end=2026-03-03T00:00:00")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp IncidentListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, late.ID, resp.Incidents[0].ID)
	})

	t.Run("dimension filter", func(t *testing.T) {
		rec := doRequest(h.HandleList, http.MethodGet, "/v1/incidents?dimension=US")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp IncidentListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, early.ID, resp.Incidents[0].ID)
	})

	t.Run("unix range", func(t *testing.T) {
		rec := doRequest(h.HandleList, http.MethodGet, "/v1/incidents?start=0&end=4102444800")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp IncidentListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("invalid start", func(t *testing.T) {
		rec := doRequest(h.HandleList, http.MethodGet, "/v1/incidents?start=bogus+xyzzy+input")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("start after end", func(t *testing.T) {
		rec := doRequest(h.HandleList, http.MethodGet, "/v1/incidents?start=2026-03-02&end=2026-03-01")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Message, "start must be before end")
	})
}

func TestHandleByID(t *testing.T) {
	st := store.New()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	incident := seedIncident(t, st, t0, "US")
	h := newIncidentHandler(st)

	t.Run("get", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodGet, "/v1/incidents/"+incident.ID)
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Incident
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, incident.ID, got.ID)
		assert.Equal(t, models.StatusOpen, got.Status)
	})

	t.Run("get unknown id", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodGet, "/v1/incidents/no-such-id")
		require.Equal(t, http.StatusNotFound, rec.Code)
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(api.ErrorCodeNotFound), resp.Error)
	})

	t.Run("resolve", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodPost, "/v1/incidents/"+incident.ID+"/resolve")
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Incident
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, models.StatusResolved, got.Status)

		// Resolving twice is a no-op
		rec = doRequest(h.HandleByID, http.MethodPost, "/v1/incidents/"+incident.ID+"/resolve")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("resolve unknown id", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodPost, "/v1/incidents/no-such-id/resolve")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method on get", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodDelete, "/v1/incidents/"+incident.ID)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(api.ErrorCodeMethodNotAllowed), resp.Error)
	})

	t.Run("wrong method on resolve", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodGet, "/v1/incidents/"+incident.ID+"/resolve")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("unknown verb", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodPost, "/v1/incidents/"+incident.ID+"/escalate")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty id", func(t *testing.T) {
		rec := doRequest(h.HandleByID, http.MethodGet, "/v1/incidents/")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
