package detect

import (
	"sort"
	"time"

	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/models"
)

// GeoFailureDetector flags a geographic dimension whose failure rate in a
// bucket exceeds both an absolute failure-count floor and a relative multiple
// of the all-dimension average rate. The double condition keeps low-traffic
// regions from being flagged on statistical noise.
type GeoFailureDetector struct{}

// NewGeoFailureDetector creates a new geographic failure detector
func NewGeoFailureDetector() *GeoFailureDetector {
	return &GeoFailureDetector{}
}

func (d *GeoFailureDetector) Kind() models.DetectorKind {
	return models.DetectorGeoFailure
}

// geoBucket holds per-dimension counts for one time bucket
type geoBucket struct {
	failed map[string]float64
	total  map[string]float64
}

func (d *GeoFailureDetector) Detect(set *models.SeriesSet, cfg *config.DetectionConfig) []models.AnomalyEvent {
	c := cfg.Geo

	buckets, bucketWidth := collectGeoBuckets(set)
	if len(buckets) == 0 {
		return nil
	}

	// Sorted bucket times and dimensions keep output deterministic
	times := make([]time.Time, 0, len(buckets))
	for ts := range buckets {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var events []models.AnomalyEvent
	for _, ts := range times {
		b := buckets[ts]

		allFailed, allTotal := 0.0, 0.0
		dims := make([]string, 0, len(b.total))
		for dim, total := range b.total {
			dims = append(dims, dim)
			allTotal += total
			allFailed += b.failed[dim]
		}
		if allTotal == 0 || allFailed == 0 {
			continue
		}
		sort.Strings(dims)

		avgRate := allFailed / allTotal

		for _, dim := range dims {
			total := b.total[dim]
			failed := b.failed[dim]
			if total == 0 {
				continue
			}

			// Absolute floor first: low-traffic noise guard
			if failed < c.AbsoluteFloor {
				continue
			}

			rate := failed / total
			if rate < c.RelativeFactor*avgRate {
				continue
			}

			multiple := rate / avgRate
			events = append(events, models.AnomalyEvent{
				Detector:  models.DetectorGeoFailure,
				Metric:    models.MetricFailedCount,
				Dimension: dim,
				Window:    models.TimeWindow{Start: ts, End: ts.Add(bucketWidth)},
				Observed:  rate,
				Baseline:  avgRate,
				Deviation: multiple,
				Severity:  GetSeverity(models.DetectorGeoFailure, multiple),
			})
		}
	}
	return events
}

// collectGeoBuckets indexes per-dimension failed and total counts by bucket
// timestamp. Only dimensioned count series participate; the global series is
// the other detectors' input.
func collectGeoBuckets(set *models.SeriesSet) (map[time.Time]*geoBucket, time.Duration) {
	buckets := make(map[time.Time]*geoBucket)
	var bucketWidth time.Duration

	for _, series := range set.ByKind(models.KindCount) {
		if series.Dimension == "" {
			continue
		}
		if series.Metric != models.MetricFailedCount && series.Metric != models.MetricTotalCount {
			continue
		}
		if bucketWidth == 0 {
			bucketWidth = series.Bucket
		}

		for _, p := range series.Points {
			b := buckets[p.Timestamp]
			if b == nil {
				b = &geoBucket{
					failed: make(map[string]float64),
					total:  make(map[string]float64),
				}
				buckets[p.Timestamp] = b
			}
			if series.Metric == models.MetricFailedCount {
				b.failed[series.Dimension] = p.Value
			} else {
				b.total[series.Dimension] = p.Value
			}
		}
	}
	return buckets, bucketWidth
}
