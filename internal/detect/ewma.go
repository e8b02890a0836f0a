package detect

import (
	"math"

	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/models"
)

// EWMADetector flags failure-count buckets that drift more than k weighted
// standard deviations away from an exponentially weighted moving average.
//
// The EWMA state (mean and variance) is local to a single Detect call, so the
// detector is restartable per series with no cross-series leakage.
type EWMADetector struct{}

// NewEWMADetector creates a new EWMA drift detector
func NewEWMADetector() *EWMADetector {
	return &EWMADetector{}
}

func (d *EWMADetector) Kind() models.DetectorKind {
	return models.DetectorEWMA
}

// Detect scans the global failed-count series. The first Warmup points only
// seed the average. A zero weighted variance (constant series) never flags.
func (d *EWMADetector) Detect(set *models.SeriesSet, cfg *config.DetectionConfig) []models.AnomalyEvent {
	c := cfg.EWMA

	series := set.Find(models.MetricFailedCount, "")
	if series == nil {
		return nil
	}
	if len(series.Points) <= c.Warmup {
		// Insufficient history: abstain
		return nil
	}

	var events []models.AnomalyEvent

	mean := series.Points[0].Value
	variance := 0.0

	for i := 1; i < len(series.Points); i++ {
		v := series.Points[i].Value

		// Score against the state before this point is folded in
		if i >= c.Warmup {
			sd := math.Sqrt(variance)
			if sd > 0 {
				dev := math.Abs(v-mean) / sd
				if dev > c.K && v >= c.MinCount {
					events = append(events, models.AnomalyEvent{
						Detector:  models.DetectorEWMA,
						Metric:    series.Metric,
						Dimension: series.Dimension,
						Window:    series.Window(i),
						Observed:  v,
						Baseline:  mean,
						Deviation: dev,
						Severity:  GetSeverity(models.DetectorEWMA, dev),
					})
				}
			}
		}

		// Exponentially weighted update of mean and variance (West 1979)
		diff := v - mean
		mean += c.Alpha * diff
		variance = (1 - c.Alpha) * (variance + c.Alpha*diff*diff)
	}
	return events
}
