// Package loader normalizes raw transaction rows into the time-indexed
// metric series the detectors consume.
package loader

import (
	"sort"
	"time"

	"github.com/moolen/vigil/internal/models"
)

// Transaction is one raw business event row.
type Transaction struct {
	Timestamp time.Time
	// Status is "success" for a successful transaction; anything else counts
	// as a failure
	Status     string
	Amount     float64
	Country    string
	LatencyMs  float64
	HasLatency bool
}

// Failed reports whether the transaction counts as a failure.
func (t *Transaction) Failed() bool {
	return t.Status != "success"
}

// Config controls how transactions are bucketed into series.
type Config struct {
	// FailureBucket is the bucket width for failure/latency series
	FailureBucket time.Duration
	// RevenueBucket is the bucket width for the revenue series
	RevenueBucket time.Duration
	// MinLatencySamples is the minimum samples per bucket for a p95 point to
	// be emitted; thinner buckets are skipped to avoid noisy percentiles
	MinLatencySamples int
}

// DefaultConfig returns the documented bucketing defaults.
func DefaultConfig() Config {
	return Config{
		FailureBucket:     5 * time.Minute,
		RevenueBucket:     time.Hour,
		MinLatencySamples: 10,
	}
}

// FromTransactions buckets raw transactions into the canonical series set:
// global failed/total counts, per-country failed/total counts, global revenue
// (successful transactions only) and a global latency p95 series when latency
// samples are present.
//
// Input rows may arrive in any order; the loader sorts. The produced set
// satisfies the series invariants (strictly increasing timestamps, unique
// keys) by construction.
func FromTransactions(txs []Transaction, cfg Config) (*models.SeriesSet, error) {
	if cfg.FailureBucket <= 0 || cfg.RevenueBucket <= 0 {
		return nil, models.NewInputError("loader bucket widths must be positive")
	}

	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	globalCounts := make(map[time.Time]*countBucket)
	countryCounts := make(map[string]map[time.Time]*countBucket)
	revenue := make(map[time.Time]float64)
	latency := make(map[time.Time][]float64)

	for _, tx := range sorted {
		bucket := tx.Timestamp.Truncate(cfg.FailureBucket)

		gc := globalCounts[bucket]
		if gc == nil {
			gc = &countBucket{}
			globalCounts[bucket] = gc
		}
		gc.total++
		if tx.Failed() {
			gc.failed++
		}

		if tx.Country != "" {
			byBucket := countryCounts[tx.Country]
			if byBucket == nil {
				byBucket = make(map[time.Time]*countBucket)
				countryCounts[tx.Country] = byBucket
			}
			cc := byBucket[bucket]
			if cc == nil {
				cc = &countBucket{}
				byBucket[bucket] = cc
			}
			cc.total++
			if tx.Failed() {
				cc.failed++
			}
		}

		if !tx.Failed() {
			revBucket := tx.Timestamp.Truncate(cfg.RevenueBucket)
			revenue[revBucket] += tx.Amount
		}

		if tx.HasLatency {
			latency[bucket] = append(latency[bucket], tx.LatencyMs)
		}
	}

	set := &models.SeriesSet{}

	failedPoints, totalPoints := countPoints(globalCounts)
	set.Series = append(set.Series,
		models.MetricSeries{
			Metric: models.MetricFailedCount,
			Kind:   models.KindCount,
			Bucket: cfg.FailureBucket,
			Points: failedPoints,
		},
		models.MetricSeries{
			Metric: models.MetricTotalCount,
			Kind:   models.KindCount,
			Bucket: cfg.FailureBucket,
			Points: totalPoints,
		},
	)

	// Sorted country order keeps the set deterministic
	countries := make([]string, 0, len(countryCounts))
	for country := range countryCounts {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	for _, country := range countries {
		failedPoints, totalPoints := countPoints(countryCounts[country])
		set.Series = append(set.Series,
			models.MetricSeries{
				Metric:    models.MetricFailedCount,
				Dimension: country,
				Kind:      models.KindCount,
				Bucket:    cfg.FailureBucket,
				Points:    failedPoints,
			},
			models.MetricSeries{
				Metric:    models.MetricTotalCount,
				Dimension: country,
				Kind:      models.KindCount,
				Bucket:    cfg.FailureBucket,
				Points:    totalPoints,
			},
		)
	}

	if len(revenue) > 0 {
		set.Series = append(set.Series, models.MetricSeries{
			Metric: models.MetricRevenue,
			Kind:   models.KindRevenue,
			Bucket: cfg.RevenueBucket,
			Points: sumPoints(revenue),
		})
	}

	if latencyPoints := latencyP95Points(latency, cfg.MinLatencySamples); len(latencyPoints) > 0 {
		set.Series = append(set.Series, models.MetricSeries{
			Metric: models.MetricLatencyP95,
			Kind:   models.KindLatency,
			Bucket: cfg.FailureBucket,
			Points: latencyPoints,
		})
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func sortedBucketTimes[V any](buckets map[time.Time]V) []time.Time {
	times := make([]time.Time, 0, len(buckets))
	for ts := range buckets {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

// countBucket accumulates failed and total counts for one time bucket
type countBucket struct {
	failed float64
	total  float64
}

func countPoints(buckets map[time.Time]*countBucket) (failed, total []models.Point) {
	for _, ts := range sortedBucketTimes(buckets) {
		b := buckets[ts]
		failed = append(failed, models.Point{Timestamp: ts, Value: b.failed})
		total = append(total, models.Point{Timestamp: ts, Value: b.total})
	}
	return failed, total
}

func sumPoints(buckets map[time.Time]float64) []models.Point {
	points := make([]models.Point, 0, len(buckets))
	for _, ts := range sortedBucketTimes(buckets) {
		points = append(points, models.Point{Timestamp: ts, Value: buckets[ts]})
	}
	return points
}

// latencyP95Points computes the p95 of each bucket's samples, skipping
// buckets with fewer than minSamples observations.
func latencyP95Points(buckets map[time.Time][]float64, minSamples int) []models.Point {
	var points []models.Point
	for _, ts := range sortedBucketTimes(buckets) {
		samples := buckets[ts]
		if len(samples) < minSamples {
			continue
		}
		points = append(points, models.Point{Timestamp: ts, Value: percentile(samples, 0.95)})
	}
	return points
}

// percentile returns the p-th percentile of samples using the nearest-rank
// method. Samples are copied before sorting; the input is not mutated.
func percentile(samples []float64, p float64) float64 {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	rank := int(float64(len(sorted))*p+0.9999999) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
