package detect

import (
	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/models"
)

// SeasonalZScoreDetector flags failure-count buckets whose value deviates
// from a rolling seasonal baseline by more than a configured z-score.
// The baseline for a point is the mean and standard deviation of the
// preceding window of buckets, never including the point itself.
type SeasonalZScoreDetector struct{}

// NewSeasonalZScoreDetector creates a new seasonal z-score detector
func NewSeasonalZScoreDetector() *SeasonalZScoreDetector {
	return &SeasonalZScoreDetector{}
}

func (d *SeasonalZScoreDetector) Kind() models.DetectorKind {
	return models.DetectorSeasonalZScore
}

// Detect scans the global failed-count series.
// With fewer than two full seasonal windows of history the detector abstains.
// A zero baseline standard deviation is treated as non-anomalous, never as a
// division.
func (d *SeasonalZScoreDetector) Detect(set *models.SeriesSet, cfg *config.DetectionConfig) []models.AnomalyEvent {
	c := cfg.SeasonalZScore

	series := set.Find(models.MetricFailedCount, "")
	if series == nil {
		return nil
	}
	if len(series.Points) < 2*c.Window {
		// Insufficient history: abstain
		return nil
	}

	var events []models.AnomalyEvent
	for i := c.Window; i < len(series.Points); i++ {
		mean, std := rollingStats(series.Points, i-c.Window, i)
		if std == 0 {
			continue
		}

		v := series.Points[i].Value
		z := (v - mean) / std
		if z <= c.ZThreshold || v < c.MinCount {
			continue
		}

		events = append(events, models.AnomalyEvent{
			Detector:  models.DetectorSeasonalZScore,
			Metric:    series.Metric,
			Dimension: series.Dimension,
			Window:    series.Window(i),
			Observed:  v,
			Baseline:  mean,
			Deviation: z,
			Severity:  GetSeverity(models.DetectorSeasonalZScore, z),
		})
	}
	return events
}
