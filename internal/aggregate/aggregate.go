// Package aggregate groups anomaly events from independent detectors into
// incident candidates by correlating them over time and dimension.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/moolen/vigil/internal/models"
)

// InvariantViolationError marks an internal defect in aggregation, such as a
// candidate with no contributing events reaching classification. It is fatal
// to the pass and never silently ignored.
type InvariantViolationError struct {
	message string
}

// NewInvariantViolationError creates a new invariant violation error
func NewInvariantViolationError(format string, args ...interface{}) *InvariantViolationError {
	return &InvariantViolationError{message: fmt.Sprintf(format, args...)}
}

// Error returns the error message
func (e *InvariantViolationError) Error() string {
	return e.message
}

// Correlate groups the unordered union of one pass's anomaly events into
// incident candidates. Two events belong to the same candidate iff their time
// windows overlap by a nonzero duration AND their dimensions are compatible
// (equal, or at least one is global). Merging is transitive across detector
// kinds: connected components of the overlap relation become candidates.
//
// The grouping is deterministic: any permutation of the input yields the same
// candidates in the same order.
func Correlate(events []models.AnomalyEvent) []models.IncidentCandidate {
	if len(events) == 0 {
		return nil
	}

	// Canonical order first so component discovery ignores input order
	sorted := make([]models.AnomalyEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return lessEvent(sorted[i], sorted[j])
	})

	uf := newUnionFind(len(sorted))
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if related(sorted[i], sorted[j]) {
				uf.union(i, j)
			}
		}
	}

	// Collect members per component, keyed by root index
	components := make(map[int][]models.AnomalyEvent)
	for i := range sorted {
		root := uf.find(i)
		components[root] = append(components[root], sorted[i])
	}

	candidates := make([]models.IncidentCandidate, 0, len(components))
	for _, members := range components {
		candidates = append(candidates, newCandidate(members))
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.Window.Start.Equal(b.Window.Start) {
			return a.Window.Start.Before(b.Window.Start)
		}
		if !a.Window.End.Equal(b.Window.End) {
			return a.Window.End.Before(b.Window.End)
		}
		return a.Dimension < b.Dimension
	})
	return candidates
}

// related implements the merge predicate from the correlation rules.
func related(a, b models.AnomalyEvent) bool {
	if !a.Window.Overlaps(b.Window) {
		return false
	}
	return a.Dimension == b.Dimension || a.Dimension == "" || b.Dimension == ""
}

// newCandidate builds a candidate from component members. The window is the
// union of the member windows; the dimension is the members' shared dimension
// or global when they disagree.
func newCandidate(members []models.AnomalyEvent) models.IncidentCandidate {
	window := members[0].Window
	dimension := members[0].Dimension
	for _, e := range members[1:] {
		window = window.Union(e.Window)
		if e.Dimension != dimension {
			// Mixed or partly-global component is a global candidate
			dimension = ""
		}
	}
	return models.IncidentCandidate{
		Window:    window,
		Dimension: dimension,
		Events:    members,
	}
}

// lessEvent is the canonical event ordering used for determinism.
func lessEvent(a, b models.AnomalyEvent) bool {
	if !a.Window.Start.Equal(b.Window.Start) {
		return a.Window.Start.Before(b.Window.Start)
	}
	if !a.Window.End.Equal(b.Window.End) {
		return a.Window.End.Before(b.Window.End)
	}
	if a.Detector != b.Detector {
		return a.Detector < b.Detector
	}
	if a.Metric != b.Metric {
		return a.Metric < b.Metric
	}
	return a.Dimension < b.Dimension
}

// unionFind is a standard disjoint-set with path compression and union by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}
