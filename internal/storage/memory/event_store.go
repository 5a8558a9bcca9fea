package memory

import (
	"context"
	"strings"
	"sync"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Event // keyed by event_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.Event),
	}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Upsert inserts new events and merges later observations into existing ones.
// The whole batch is validated before anything is written.
func (s *EventStore) Upsert(_ context.Context, events []*domain.Event) (storage.UpsertResult, error) {
	var res storage.UpsertResult
	for _, e := range events {
		if e == nil || e.EventID == "" {
			return res, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		existing, ok := s.data[e.EventID]
		if !ok {
			// Store a copy to prevent external mutation
			s.data[e.EventID] = e.Clone()
			res.Inserted++
			continue
		}
		if existing.MergeFill(e) {
			res.Updated++
		} else {
			res.Unchanged++
		}
	}
	return res, nil
}

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(_ context.Context, eventID string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[eventID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e.Clone(), nil
}

// GetAll retrieves every event in canonical order.
func (s *EventStore) GetAll(_ context.Context) ([]*domain.Event, error) {
	return s.filter(func(*domain.Event) bool { return true }), nil
}

// GetByDateRange retrieves events with date_local within [from, to] (inclusive).
func (s *EventStore) GetByDateRange(_ context.Context, from, to string) ([]*domain.Event, error) {
	return s.filter(func(e *domain.Event) bool {
		return e.DateLocal >= from && e.DateLocal <= to
	}), nil
}

// GetByCurrency retrieves all events of one currency in canonical order.
func (s *EventStore) GetByCurrency(_ context.Context, currency string) ([]*domain.Event, error) {
	ccy := strings.ToUpper(strings.TrimSpace(currency))
	return s.filter(func(e *domain.Event) bool {
		return e.Currency == ccy
	}), nil
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *EventStore) filter(keep func(*domain.Event) bool) []*domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if keep(e) {
			result = append(result, e.Clone())
		}
	}
	normalization.SortEvents(result)
	return result
}
