package detect

import (
	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/models"
)

// LatencySpikeDetector flags buckets whose p95 latency exceeds a ceiling.
// The ceiling is dynamic by default: Factor times the trailing rolling
// baseline of prior p95 buckets. An optional static ceiling can be configured;
// when both apply the lower (more sensitive) one wins.
//
// The detector operates only on latency-tagged series. If the series set
// contains none, it is skipped entirely; that is not an error.
type LatencySpikeDetector struct{}

// NewLatencySpikeDetector creates a new latency spike detector
func NewLatencySpikeDetector() *LatencySpikeDetector {
	return &LatencySpikeDetector{}
}

func (d *LatencySpikeDetector) Kind() models.DetectorKind {
	return models.DetectorLatencySpike
}

func (d *LatencySpikeDetector) Detect(set *models.SeriesSet, cfg *config.DetectionConfig) []models.AnomalyEvent {
	c := cfg.Latency

	var events []models.AnomalyEvent
	for _, series := range set.ByKind(models.KindLatency) {
		events = append(events, d.detectSeries(series, c)...)
	}
	return events
}

func (d *LatencySpikeDetector) detectSeries(series *models.MetricSeries, c config.LatencyConfig) []models.AnomalyEvent {
	if len(series.Points) <= c.Window {
		// Insufficient history: abstain
		return nil
	}

	var events []models.AnomalyEvent
	for i := c.Window; i < len(series.Points); i++ {
		baseline, _ := rollingStats(series.Points, i-c.Window, i)
		if baseline <= 0 {
			continue
		}

		ceiling := baseline * c.Factor
		if c.StaticCeilingMs > 0 && c.StaticCeilingMs < ceiling {
			ceiling = c.StaticCeilingMs
		}

		v := series.Points[i].Value
		if v <= ceiling {
			continue
		}

		ratio := v / baseline
		events = append(events, models.AnomalyEvent{
			Detector:  models.DetectorLatencySpike,
			Metric:    series.Metric,
			Dimension: series.Dimension,
			Window:    series.Window(i),
			Observed:  v,
			Baseline:  baseline,
			Deviation: ratio,
			Severity:  GetSeverity(models.DetectorLatencySpike, ratio),
		})
	}
	return events
}
