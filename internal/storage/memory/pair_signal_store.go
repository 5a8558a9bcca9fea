package memory

import (
	"context"
	"sync"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/signalfilter"
	"fx-calendar-lab/internal/storage"
)

type runStage struct {
	runID string
	stage domain.SignalStage
}

// PairSignalStore is an in-memory implementation of storage.PairSignalStore.
type PairSignalStore struct {
	mu   sync.RWMutex
	data map[runStage][]*domain.PairSignal
}

// NewPairSignalStore creates a new in-memory pair signal store.
func NewPairSignalStore() *PairSignalStore {
	return &PairSignalStore{
		data: make(map[runStage][]*domain.PairSignal),
	}
}

// Compile-time interface check.
var _ storage.PairSignalStore = (*PairSignalStore)(nil)

// InsertRun stores the signals of a run stage. Returns ErrDuplicateKey if it exists.
func (s *PairSignalStore) InsertRun(_ context.Context, runID string, stage domain.SignalStage, signals []*domain.PairSignal) error {
	if runID == "" || stage == "" {
		return storage.ErrInvalidInput
	}
	key := runStage{runID: runID, stage: stage}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	rows := make([]*domain.PairSignal, 0, len(signals))
	for _, p := range signals {
		if p == nil {
			return storage.ErrInvalidInput
		}
		rows = append(rows, cloneSignal(p))
	}
	s.data[key] = rows
	return nil
}

// GetByRun retrieves the signals of a run stage ordered by (when_utc, currency, event_id, pair).
func (s *PairSignalStore) GetByRun(_ context.Context, runID string, stage domain.SignalStage) ([]*domain.PairSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[runStage{runID: runID, stage: stage}]
	result := make([]*domain.PairSignal, 0, len(rows))
	for _, p := range rows {
		result = append(result, cloneSignal(p))
	}
	signalfilter.SortSignals(result)
	return result, nil
}

func cloneSignal(p *domain.PairSignal) *domain.PairSignal {
	c := *p
	c.WhenUTC = clonePtr(p.WhenUTC)
	c.SurpriseRaw = clonePtr(p.SurpriseRaw)
	c.SurpriseZ = clonePtr(p.SurpriseZ)
	c.SurpriseSign = clonePtr(p.SurpriseSign)
	return &c
}
