package detect

import "github.com/moolen/vigil/internal/models"

// SeverityRule defines a deterministic severity assignment
type SeverityRule struct {
	Kind models.DetectorKind
	// MinDeviation is the smallest deviation score the rule applies to.
	// Rules for one kind are ordered from highest to lowest deviation.
	MinDeviation float64
	Severity     models.Severity
}

// severityRules is the canonical severity mapping.
// This is the single source of truth for severity classification.
// Deviation scales differ per detector: z-scores and sigma multiples for the
// statistical detectors, a p95 ratio for latency, a drop fraction in [0,1]
// for revenue, and a rate multiple for geo.
var severityRules = []SeverityRule{
	{models.DetectorSeasonalZScore, 6.0, models.SeverityCritical},
	{models.DetectorSeasonalZScore, 4.0, models.SeverityHigh},
	{models.DetectorSeasonalZScore, 0, models.SeverityMedium},

	{models.DetectorEWMA, 6.0, models.SeverityCritical},
	{models.DetectorEWMA, 4.0, models.SeverityHigh},
	{models.DetectorEWMA, 0, models.SeverityMedium},

	{models.DetectorLatencySpike, 4.0, models.SeverityCritical},
	{models.DetectorLatencySpike, 3.0, models.SeverityHigh},
	{models.DetectorLatencySpike, 0, models.SeverityMedium},

	{models.DetectorRevenueDrop, 0.8, models.SeverityCritical},
	{models.DetectorRevenueDrop, 0.5, models.SeverityHigh},
	{models.DetectorRevenueDrop, 0, models.SeverityMedium},

	{models.DetectorGeoFailure, 4.0, models.SeverityCritical},
	{models.DetectorGeoFailure, 3.0, models.SeverityHigh},
	{models.DetectorGeoFailure, 0, models.SeverityMedium},
}

// GetSeverity returns the severity for a detector kind and deviation score.
// The first matching rule wins; unknown kinds default to Medium.
func GetSeverity(kind models.DetectorKind, deviation float64) models.Severity {
	for _, rule := range severityRules {
		if rule.Kind == kind && deviation >= rule.MinDeviation {
			return rule.Severity
		}
	}
	return models.SeverityMedium
}
