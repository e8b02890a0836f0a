package detect

import (
	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/models"
)

// RevenueDropDetector flags revenue buckets that fall below a configured
// fraction of the trailing average of the previous K buckets.
// The first K buckets of a series are never flagged regardless of value:
// there is no baseline to compare against.
type RevenueDropDetector struct{}

// NewRevenueDropDetector creates a new revenue drop detector
func NewRevenueDropDetector() *RevenueDropDetector {
	return &RevenueDropDetector{}
}

func (d *RevenueDropDetector) Kind() models.DetectorKind {
	return models.DetectorRevenueDrop
}

func (d *RevenueDropDetector) Detect(set *models.SeriesSet, cfg *config.DetectionConfig) []models.AnomalyEvent {
	c := cfg.Revenue

	var events []models.AnomalyEvent
	for _, series := range set.ByKind(models.KindRevenue) {
		events = append(events, d.detectSeries(series, c)...)
	}
	return events
}

func (d *RevenueDropDetector) detectSeries(series *models.MetricSeries, c config.RevenueConfig) []models.AnomalyEvent {
	var events []models.AnomalyEvent

	for i := c.TrailingBuckets; i < len(series.Points); i++ {
		baseline, _ := rollingStats(series.Points, i-c.TrailingBuckets, i)
		if baseline < c.MinBaseline {
			// Baseline too small to call anything a drop
			continue
		}

		v := series.Points[i].Value
		if v >= baseline*c.DropFactor {
			continue
		}

		// Drop fraction in [0,1]: 0.8 means revenue fell 80% below baseline
		drop := (baseline - v) / baseline
		events = append(events, models.AnomalyEvent{
			Detector:  models.DetectorRevenueDrop,
			Metric:    series.Metric,
			Dimension: series.Dimension,
			Window:    series.Window(i),
			Observed:  v,
			Baseline:  baseline,
			Deviation: drop,
			Severity:  GetSeverity(models.DetectorRevenueDrop, drop),
		})
	}
	return events
}
