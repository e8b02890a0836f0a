package models

// DetectorKind identifies which detector produced an anomaly event.
type DetectorKind string

const (
	DetectorSeasonalZScore DetectorKind = "seasonal_zscore"
	DetectorEWMA           DetectorKind = "ewma"
	DetectorLatencySpike   DetectorKind = "latency_spike"
	DetectorRevenueDrop    DetectorKind = "revenue_drop"
	DetectorGeoFailure     DetectorKind = "geo_failure"
)

// Severity indicates the impact level of an anomaly
type Severity string

const (
	SeverityLow      Severity = "low"      // Informational or historical
	SeverityMedium   Severity = "medium"   // Potential contributor
	SeverityHigh     Severity = "high"     // Likely contributor
	SeverityCritical Severity = "critical" // Actively breaking the business metric
)

// AnomalyEvent is a single anomalous window flagged by exactly one detector.
// Events are immutable once emitted.
type AnomalyEvent struct {
	Detector  DetectorKind `json:"detector"`
	Metric    string       `json:"metric"`
	Dimension string       `json:"dimension,omitempty"`
	Window    TimeWindow   `json:"window"`
	Observed  float64      `json:"observed"`
	Baseline  float64      `json:"baseline"`
	// Deviation is the detector-specific deviation score (z-score, EWMA
	// sigma multiple, drop ratio, rate multiple). Always >= 0.
	Deviation float64  `json:"deviation"`
	Severity  Severity `json:"severity"`
}
