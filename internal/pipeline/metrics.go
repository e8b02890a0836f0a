package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for detection pass observability.
type Metrics struct {
	PassesTotal    prometheus.Counter   // Completed detection passes
	PassFailures   prometheus.Counter   // Aborted detection passes
	PassDuration   prometheus.Histogram // Wall time of a full pass
	AnomaliesTotal *prometheus.CounterVec // Anomaly events by detector
	IncidentsTotal *prometheus.CounterVec // Finalized incidents by root cause
}

// NewMetrics creates Prometheus metrics for the detection pipeline.
// The registerer parameter allows flexible registration (global registry in
// the server, a private registry in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	passesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigil_detection_passes_total",
		Help: "Total number of completed detection passes",
	})

	passFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigil_detection_pass_failures_total",
		Help: "Total number of detection passes aborted by an error",
	})

	passDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vigil_detection_pass_duration_seconds",
		Help:    "Wall time of a full detection pass",
		Buckets: prometheus.DefBuckets,
	})

	anomaliesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_anomaly_events_total",
		Help: "Total number of anomaly events emitted, by detector",
	}, []string{"detector"})

	incidentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_incidents_total",
		Help: "Total number of finalized incidents, by root cause",
	}, []string{"root_cause"})

	reg.MustRegister(passesTotal)
	reg.MustRegister(passFailures)
	reg.MustRegister(passDuration)
	reg.MustRegister(anomaliesTotal)
	reg.MustRegister(incidentsTotal)

	return &Metrics{
		PassesTotal:    passesTotal,
		PassFailures:   passFailures,
		PassDuration:   passDuration,
		AnomaliesTotal: anomaliesTotal,
		IncidentsTotal: incidentsTotal,
	}
}
