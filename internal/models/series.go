package models

import (
	"math"
	"time"
)

// SeriesKind tags what a series measures so detectors can select their inputs.
type SeriesKind string

const (
	// KindCount is an event count per bucket (failed/total transactions)
	KindCount SeriesKind = "count"
	// KindRevenue is a monetary sum per bucket
	KindRevenue SeriesKind = "revenue"
	// KindLatency is a latency percentile per bucket, in milliseconds
	KindLatency SeriesKind = "latency"
)

// Well-known metric names produced by the loader.
const (
	MetricFailedCount = "failed_count"
	MetricTotalCount  = "total_count"
	MetricRevenue     = "revenue"
	MetricLatencyP95  = "latency_p95_ms"
)

// Point is a single observation in a series.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricSeries is a time-indexed sequence of values for one (metric, dimension)
// key. Dimension is empty for global series. Timestamps must be strictly
// increasing; Bucket is the width of each aggregation bucket and defines the
// window an anomalous point covers.
type MetricSeries struct {
	Metric    string        `json:"metric"`
	Dimension string        `json:"dimension,omitempty"`
	Kind      SeriesKind    `json:"kind"`
	Bucket    time.Duration `json:"bucket"`
	Points    []Point       `json:"points"`
}

// Validate checks the series invariants: strictly increasing timestamps,
// finite values, a positive bucket width and a non-empty metric name.
func (s *MetricSeries) Validate() error {
	if s.Metric == "" {
		return NewInputError("series has empty metric name")
	}
	if s.Bucket <= 0 {
		return NewInputError("series %s: bucket width must be positive", s.Key())
	}
	for i, p := range s.Points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return NewInputError("series %s: non-finite value at index %d", s.Key(), i)
		}
		if i > 0 && !s.Points[i-1].Timestamp.Before(p.Timestamp) {
			return NewInputError("series %s: timestamps not strictly increasing at index %d", s.Key(), i)
		}
	}
	return nil
}

// Key returns the (metric, dimension) identity of the series.
func (s *MetricSeries) Key() string {
	if s.Dimension == "" {
		return s.Metric
	}
	return s.Metric + "/" + s.Dimension
}

// Window returns the bucket-aligned time window covered by the point at index i.
func (s *MetricSeries) Window(i int) TimeWindow {
	start := s.Points[i].Timestamp
	return TimeWindow{Start: start, End: start.Add(s.Bucket)}
}

// SeriesSet is the full input to one detection pass.
type SeriesSet struct {
	Series []MetricSeries `json:"series"`
}

// Validate validates every series and rejects duplicate (metric, dimension) keys.
func (ss *SeriesSet) Validate() error {
	seen := make(map[string]bool, len(ss.Series))
	for i := range ss.Series {
		s := &ss.Series[i]
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Key()] {
			return NewInputError("duplicate series key %s", s.Key())
		}
		seen[s.Key()] = true
	}
	return nil
}

// Empty reports whether the set contains no points at all.
func (ss *SeriesSet) Empty() bool {
	for i := range ss.Series {
		if len(ss.Series[i].Points) > 0 {
			return false
		}
	}
	return true
}

// ByMetric returns all series with the given metric name, in set order.
func (ss *SeriesSet) ByMetric(metric string) []*MetricSeries {
	var out []*MetricSeries
	for i := range ss.Series {
		if ss.Series[i].Metric == metric {
			out = append(out, &ss.Series[i])
		}
	}
	return out
}

// ByKind returns all series of the given kind, in set order.
func (ss *SeriesSet) ByKind(kind SeriesKind) []*MetricSeries {
	var out []*MetricSeries
	for i := range ss.Series {
		if ss.Series[i].Kind == kind {
			out = append(out, &ss.Series[i])
		}
	}
	return out
}

// Find returns the series with the exact (metric, dimension) key, or nil.
func (ss *SeriesSet) Find(metric, dimension string) *MetricSeries {
	for i := range ss.Series {
		if ss.Series[i].Metric == metric && ss.Series[i].Dimension == dimension {
			return &ss.Series[i]
		}
	}
	return nil
}

// TimeWindow is a half-open [Start, End) time range.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the two windows share a nonzero duration.
// Touching endpoints do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Union returns the smallest window covering both inputs.
func (w TimeWindow) Union(other TimeWindow) TimeWindow {
	out := w
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if other.End.After(out.End) {
		out.End = other.End
	}
	return out
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
