package memory

import (
	"context"
	"sync"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/storage"
)

// ScoredEventStore is an in-memory implementation of storage.ScoredEventStore.
type ScoredEventStore struct {
	mu   sync.RWMutex
	runs map[string][]*domain.ScoredEvent // keyed by run_id
}

// NewScoredEventStore creates a new in-memory scored event store.
func NewScoredEventStore() *ScoredEventStore {
	return &ScoredEventStore{
		runs: make(map[string][]*domain.ScoredEvent),
	}
}

// Compile-time interface check.
var _ storage.ScoredEventStore = (*ScoredEventStore)(nil)

// InsertRun stores the scored corpus of a run. Returns ErrDuplicateKey if the run exists.
func (s *ScoredEventStore) InsertRun(_ context.Context, runID string, events []*domain.ScoredEvent) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; exists {
		return storage.ErrDuplicateKey
	}

	rows := make([]*domain.ScoredEvent, 0, len(events))
	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
		rows = append(rows, cloneScored(e))
	}
	s.runs[runID] = rows
	return nil
}

// GetByRun retrieves the scored corpus of a run in canonical event order.
func (s *ScoredEventStore) GetByRun(_ context.Context, runID string) ([]*domain.ScoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.runs[runID]
	result := make([]*domain.ScoredEvent, 0, len(rows))
	for _, e := range rows {
		result = append(result, cloneScored(e))
	}
	normalization.SortScored(result)
	return result, nil
}

func cloneScored(e *domain.ScoredEvent) *domain.ScoredEvent {
	c := *e
	c.Event = *e.Event.Clone()
	c.GoodIsHigher = clonePtr(e.GoodIsHigher)
	c.SurpriseRaw = clonePtr(e.SurpriseRaw)
	c.SurpriseSign = clonePtr(e.SurpriseSign)
	c.SurpriseZ = clonePtr(e.SurpriseZ)
	c.DirectionalSurprise = clonePtr(e.DirectionalSurprise)
	c.DirectionalZ = clonePtr(e.DirectionalZ)
	c.CCStrengthSign = clonePtr(e.CCStrengthSign)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
