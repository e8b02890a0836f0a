package rca

import (
	"fmt"
	"strings"

	"github.com/moolen/vigil/internal/models"
)

// Rule is one entry in the ordered rule table. Each rule pairs a predicate
// over the candidate's detector evidence with a confidence formula and a
// recommendation template.
type Rule struct {
	ID        string
	RootCause models.RootCause
	// Match decides whether the rule fires for the candidate's evidence
	Match func(ev evidence) bool
	// Confidence computes the verdict confidence; the engine clamps to [0,1]
	Confidence func(ev evidence) float64
	// Recommend renders the recommended action for the candidate
	Recommend func(c *models.IncidentCandidate, ev evidence) string
}

// rules is evaluated top to bottom; the first matching rule wins and no
// further rules are checked. The fallback rule is last and unconditional, so
// classification always yields exactly one verdict.
var rules = []Rule{
	{
		ID:        "regional-outage",
		RootCause: models.RootCauseRegionalOutage,
		Match: func(ev evidence) bool {
			return ev.has(models.DetectorGeoFailure) && !ev.has(models.DetectorRevenueDrop)
		},
		// More corroborating geo observations raise confidence, capped at 0.9
		Confidence: func(ev evidence) float64 {
			c := 0.3 + 0.1*float64(ev.geoEvents)
			if c > 0.9 {
				return 0.9
			}
			return c
		},
		Recommend: func(c *models.IncidentCandidate, ev evidence) string {
			region := c.Dimension
			if region == "" {
				region = strings.Join(ev.geoDims, ", ")
			}
			return fmt.Sprintf("Investigate services in %s: check network, CDN, and regional gateways.", region)
		},
	},
	{
		ID:        "revenue-impacting-failure",
		RootCause: models.RootCauseRevenueImpacting,
		Match: func(ev evidence) bool {
			if !ev.has(models.DetectorRevenueDrop) {
				return false
			}
			return ev.has(models.DetectorSeasonalZScore) ||
				ev.has(models.DetectorEWMA) ||
				ev.has(models.DetectorGeoFailure)
		},
		// Deeper revenue drops raise confidence: 0.5 at the threshold,
		// approaching 1.0 for a total outage
		Confidence: func(ev evidence) float64 {
			return 0.5 + 0.5*ev.maxDeviation[models.DetectorRevenueDrop]
		},
		Recommend: func(c *models.IncidentCandidate, _ evidence) string {
			return "Check payment gateway, merchant keys, and recent deploys affecting payments."
		},
	},
	{
		ID:        "latency-degradation",
		RootCause: models.RootCauseLatencyDegraded,
		// Latency spike alone, with no failure or revenue corroboration
		Match: func(ev evidence) bool {
			return ev.has(models.DetectorLatencySpike) &&
				!ev.has(models.DetectorRevenueDrop) &&
				!ev.has(models.DetectorGeoFailure) &&
				!ev.has(models.DetectorSeasonalZScore) &&
				!ev.has(models.DetectorEWMA)
		},
		Confidence: func(ev evidence) float64 {
			return 0.35 + 0.1*ev.maxDeviation[models.DetectorLatencySpike]
		},
		Recommend: func(c *models.IncidentCandidate, _ evidence) string {
			metric := contributingMetric(c, models.DetectorLatencySpike)
			return fmt.Sprintf("Profile slow endpoints behind %s and check datastore saturation.", metric)
		},
	},
	{
		ID:        "error-rate-surge",
		RootCause: models.RootCauseErrorRateSurge,
		// Both statistical failure detectors agree on the same window
		Match: func(ev evidence) bool {
			return ev.has(models.DetectorSeasonalZScore) && ev.has(models.DetectorEWMA)
		},
		Confidence: func(ev evidence) float64 {
			dev := ev.maxDeviation[models.DetectorSeasonalZScore]
			if e := ev.maxDeviation[models.DetectorEWMA]; e > dev {
				dev = e
			}
			return 0.4 + 0.1*dev
		},
		Recommend: func(c *models.IncidentCandidate, _ evidence) string {
			return "Correlate failed transactions with recent deploys and upstream status pages."
		},
	},
	{
		ID:        "seasonal-noise",
		RootCause: models.RootCauseSeasonalNoise,
		// A lone low-severity seasonal flag is most likely cyclic variation
		Match: func(ev evidence) bool {
			if len(ev.detectors) != 1 || !ev.has(models.DetectorSeasonalZScore) {
				return false
			}
			return ev.maxSeverity == models.SeverityLow || ev.maxSeverity == models.SeverityMedium
		},
		Confidence: func(ev evidence) float64 {
			return 0.35
		},
		Recommend: func(c *models.IncidentCandidate, _ evidence) string {
			metric := contributingMetric(c, models.DetectorSeasonalZScore)
			return fmt.Sprintf("Likely seasonal variation in %s; widen the seasonal window before alerting.", metric)
		},
	},
	{
		ID:        "unclassified-fallback",
		RootCause: models.RootCauseUnclassified,
		Match: func(ev evidence) bool {
			return true
		},
		Confidence: func(ev evidence) float64 {
			return 0.25
		},
		Recommend: func(c *models.IncidentCandidate, _ evidence) string {
			return "Inspect detector outputs manually or expand the RCA rule set."
		},
	},
}

// contributingMetric returns the metric name of the first event emitted by
// the given detector, for recommendation interpolation.
func contributingMetric(c *models.IncidentCandidate, kind models.DetectorKind) string {
	for _, e := range c.Events {
		if e.Detector == kind {
			return e.Metric
		}
	}
	return "the affected metric"
}
