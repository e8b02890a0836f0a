package detect

import (
	"math"

	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/models"
)

// Detector is the interface for all anomaly detectors.
//
// A detector is a pure function over an immutable series set: it holds no
// state between calls, so detectors may run in parallel and in any order
// without affecting each other's output. A detector that lacks sufficient
// history, or whose input series are absent, abstains by returning nothing.
type Detector interface {
	Kind() models.DetectorKind
	Detect(set *models.SeriesSet, cfg *config.DetectionConfig) []models.AnomalyEvent
}

// Registry returns the full detector set in a fixed order.
// The order only affects log output; detector results are order-insensitive.
func Registry() []Detector {
	return []Detector{
		NewSeasonalZScoreDetector(),
		NewEWMADetector(),
		NewLatencySpikeDetector(),
		NewRevenueDropDetector(),
		NewGeoFailureDetector(),
	}
}

// rollingStats computes mean and standard deviation over points[start:end].
func rollingStats(points []models.Point, start, end int) (mean, std float64) {
	n := float64(end - start)
	if n <= 0 {
		return 0, 0
	}
	sum := 0.0
	for i := start; i < end; i++ {
		sum += points[i].Value
	}
	mean = sum / n
	if n < 2 {
		return mean, 0
	}
	sq := 0.0
	for i := start; i < end; i++ {
		d := points[i].Value - mean
		sq += d * d
	}
	// Sample standard deviation, matching the rolling std of the baseline
	return mean, math.Sqrt(sq / (n - 1))
}
