package apiserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/vigil/internal/loader"
	"github.com/moolen/vigil/internal/pipeline"
	"github.com/moolen/vigil/internal/store"
)

type stubReadiness struct {
	ready bool
}

func (s *stubReadiness) IsReady() bool { return s.ready }

func newTestServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.Pipeline == nil {
		opts.Pipeline = pipeline.New(opts.Store)
	}
	if opts.Loader == nil {
		opts.Loader = loader.NewCachingLoader(loader.DefaultConfig())
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	return New(opts)
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(Options{})
	rec := serve(s, http.MethodGet, "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyEndpoint(t *testing.T) {
	checker := &stubReadiness{}
	s := newTestServer(Options{ReadinessChecker: checker})

	rec := serve(s, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.ready = true
	rec = serve(s, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ready"])
}

func TestReadyDefaultsToReady(t *testing.T) {
	s := newTestServer(Options{})
	rec := serve(s, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	st := store.New()
	p := pipeline.New(st, pipeline.WithMetrics(pipeline.NewMetrics(reg)))
	s := newTestServer(Options{Store: st, Pipeline: p, Registry: reg})

	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vigil_detection_passes_total")
}

func TestMetricsEndpointAbsentWithoutRegistry(t *testing.T) {
	s := newTestServer(Options{})
	rec := serve(s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(Options{})
	rec := serve(s, http.MethodOptions, "/v1/incidents")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestMethodEnforcement(t *testing.T) {
	s := newTestServer(Options{})

	rec := serve(s, http.MethodGet, "/v1/pass")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(s, http.MethodDelete, "/v1/incidents")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIncidentRoutesWired(t *testing.T) {
	s := newTestServer(Options{})

	rec := serve(s, http.MethodGet, "/v1/incidents")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

	rec = serve(s, http.MethodGet, "/v1/incidents/unknown-id")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
