// Package rca maps an incident candidate's anomaly evidence to a single
// root-cause verdict with a bounded confidence score and a recommended action.
package rca

import (
	"github.com/moolen/vigil/internal/aggregate"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/models"
)

// Engine classifies incident candidates against the ordered rule table.
type Engine struct {
	logger *logging.Logger
}

// NewEngine creates a new RCA engine
func NewEngine() *Engine {
	return &Engine{
		logger: logging.GetLogger("rca.engine"),
	}
}

// Classify returns exactly one verdict for the candidate: rules are evaluated
// in fixed priority order and the first matching rule wins. The unconditional
// fallback rule guarantees a verdict for every non-empty candidate.
//
// An empty candidate is a precondition violation by the aggregator and aborts
// the pass.
func (e *Engine) Classify(candidate *models.IncidentCandidate) (models.RootCauseVerdict, error) {
	if candidate == nil || len(candidate.Events) == 0 {
		return models.RootCauseVerdict{}, aggregate.NewInvariantViolationError(
			"incident candidate with zero contributing events reached classification")
	}

	ev := summarize(candidate)

	for _, rule := range rules {
		if !rule.Match(ev) {
			continue
		}

		verdict := models.RootCauseVerdict{
			RootCause:      rule.RootCause,
			Confidence:     clamp01(rule.Confidence(ev)),
			Recommendation: rule.Recommend(candidate, ev),
			RuleID:         rule.ID,
		}
		e.logger.Debug("rule %s fired for candidate %v-%v: %s (confidence %.2f)",
			rule.ID, candidate.Window.Start, candidate.Window.End,
			verdict.RootCause, verdict.Confidence)
		return verdict, nil
	}

	// Unreachable: the fallback rule matches unconditionally
	return models.RootCauseVerdict{}, aggregate.NewInvariantViolationError(
		"no rule matched, fallback rule missing from rule table")
}

// evidence summarizes a candidate for rule predicates and confidence formulas.
type evidence struct {
	detectors map[models.DetectorKind]bool
	// maxDeviation holds the largest deviation score per contributing detector
	maxDeviation map[models.DetectorKind]float64
	maxSeverity  models.Severity
	geoEvents    int
	geoDims      []string
}

func summarize(c *models.IncidentCandidate) evidence {
	ev := evidence{
		detectors:    c.Detectors(),
		maxDeviation: make(map[models.DetectorKind]float64),
		maxSeverity:  c.MaxSeverity(),
	}
	seenDims := make(map[string]bool)
	for _, e := range c.Events {
		if e.Deviation > ev.maxDeviation[e.Detector] {
			ev.maxDeviation[e.Detector] = e.Deviation
		}
		if e.Detector == models.DetectorGeoFailure {
			ev.geoEvents++
			if e.Dimension != "" && !seenDims[e.Dimension] {
				seenDims[e.Dimension] = true
				ev.geoDims = append(ev.geoDims, e.Dimension)
			}
		}
	}
	return ev
}

func (ev evidence) has(kind models.DetectorKind) bool {
	return ev.detectors[kind]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
