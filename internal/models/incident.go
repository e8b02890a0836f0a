package models

import "time"

// RootCause is a label from the fixed RCA taxonomy.
type RootCause string

const (
	RootCauseRegionalOutage   RootCause = "RegionalOutage"
	RootCauseRevenueImpacting RootCause = "RevenueImpactingFailure"
	RootCauseLatencyDegraded  RootCause = "LatencyDegradation"
	RootCauseErrorRateSurge   RootCause = "ErrorRateSurge"
	RootCauseSeasonalNoise    RootCause = "SeasonalNoise"
	RootCauseUnclassified     RootCause = "Unclassified"
)

// IncidentCandidate is a connected component of correlated anomaly events
// awaiting classification. It owns its events by reference, read-only.
// The aggregator guarantees Events is non-empty and Window is the union of
// the contributing event windows.
type IncidentCandidate struct {
	Window TimeWindow `json:"window"`
	// Dimension is the shared dimension of the contributing events, or empty
	// when the candidate is global / spans multiple dimensions.
	Dimension string         `json:"dimension,omitempty"`
	Events    []AnomalyEvent `json:"events"`
}

// RootCauseVerdict is the RCA engine's single explanation for an incident.
type RootCauseVerdict struct {
	RootCause      RootCause `json:"root_cause"`
	Confidence     float64   `json:"confidence"` // bounded [0,1]
	Recommendation string    `json:"recommendation"`
	RuleID         string    `json:"rule_id"`
}

// IncidentStatus is the lifecycle state of an incident.
type IncidentStatus string

const (
	StatusOpen     IncidentStatus = "OPEN"
	StatusResolved IncidentStatus = "RESOLVED"
)

// Incident is a finalized, classified grouping of correlated anomaly events.
// Incidents are created with exactly one verdict, mutated only to transition
// status, and never deleted.
type Incident struct {
	ID        string           `json:"id"`
	Window    TimeWindow       `json:"window"`
	Dimension string           `json:"dimension,omitempty"`
	Events    []AnomalyEvent   `json:"events"`
	Verdict   RootCauseVerdict `json:"verdict"`
	Status    IncidentStatus   `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// MaxDeviation returns the largest deviation score among contributing events.
func (c *IncidentCandidate) MaxDeviation() float64 {
	max := 0.0
	for _, e := range c.Events {
		if e.Deviation > max {
			max = e.Deviation
		}
	}
	return max
}

// Detectors returns the set of detector kinds that contributed to the candidate.
func (c *IncidentCandidate) Detectors() map[DetectorKind]bool {
	out := make(map[DetectorKind]bool, len(c.Events))
	for _, e := range c.Events {
		out[e.Detector] = true
	}
	return out
}

// MaxSeverity returns the highest severity among contributing events.
func (c *IncidentCandidate) MaxSeverity() Severity {
	rank := map[Severity]int{
		SeverityLow:      0,
		SeverityMedium:   1,
		SeverityHigh:     2,
		SeverityCritical: 3,
	}
	max := SeverityLow
	for _, e := range c.Events {
		if rank[e.Severity] > rank[max] {
			max = e.Severity
		}
	}
	return max
}
