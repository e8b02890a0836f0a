// Package store holds the in-memory, append-only registry of finalized
// incidents.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/models"
)

// NotFoundError indicates the requested incident id does not exist.
type NotFoundError struct {
	id string
}

// Error returns the error message
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("incident %s not found", e.id)
}

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// Store is an append-only incident registry. Incidents are inserted with
// internally generated ids, never deleted, and mutated only to transition
// status. All writes are serialized by the store mutex so id assignment is
// collision-free under concurrent inserts.
type Store struct {
	mu        sync.RWMutex
	logger    *logging.Logger
	incidents map[string]*models.Incident
	order     []string // insertion order, for stable query results
}

// New creates an empty incident store
func New() *Store {
	return &Store{
		logger:    logging.GetLogger("store"),
		incidents: make(map[string]*models.Incident),
	}
}

// Append creates a finalized incident from a classified candidate and inserts
// it. The id is generated internally; callers never supply one.
func (s *Store) Append(candidate models.IncidentCandidate, verdict models.RootCauseVerdict) (models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if _, exists := s.incidents[id]; exists {
		return models.Incident{}, fmt.Errorf("incident id collision on %s", id)
	}

	incident := &models.Incident{
		ID:        id,
		Window:    candidate.Window,
		Dimension: candidate.Dimension,
		Events:    candidate.Events,
		Verdict:   verdict,
		Status:    models.StatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	s.incidents[id] = incident
	s.order = append(s.order, id)

	s.logger.DebugWithFields("incident appended",
		logging.Field("incident_id", id),
		logging.Field("root_cause", verdict.RootCause),
		logging.Field("confidence", verdict.Confidence),
	)
	return *incident, nil
}

// Get returns the incident with the given id.
func (s *Store) Get(id string) (models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	incident, ok := s.incidents[id]
	if !ok {
		return models.Incident{}, &NotFoundError{id: id}
	}
	return *incident, nil
}

// Query returns all incidents whose window intersects the given range, in
// insertion order. An empty dimensionFilter matches every incident; a
// non-empty filter matches incidents with that exact dimension.
func (s *Store) Query(window models.TimeWindow, dimensionFilter string) []models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Incident
	for _, id := range s.order {
		incident := s.incidents[id]
		if !incident.Window.Overlaps(window) {
			continue
		}
		if dimensionFilter != "" && incident.Dimension != dimensionFilter {
			continue
		}
		out = append(out, *incident)
	}
	return out
}

// Resolve transitions an incident from OPEN to RESOLVED.
// Resolving an already-resolved incident is a no-op, not an error.
func (s *Store) Resolve(id string) (models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	incident, ok := s.incidents[id]
	if !ok {
		return models.Incident{}, &NotFoundError{id: id}
	}
	if incident.Status != models.StatusResolved {
		incident.Status = models.StatusResolved
		s.logger.Info("incident %s resolved", id)
	}
	return *incident, nil
}

// Len returns the number of stored incidents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.incidents)
}
