package memory

import (
	"context"
	"sync"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/storage"
)

type statsRun struct {
	minSamples int
	stats      []domain.SurpriseStat
}

// TitleStatsStore is an in-memory implementation of storage.TitleStatsStore.
type TitleStatsStore struct {
	mu   sync.RWMutex
	runs map[string]statsRun
}

// NewTitleStatsStore creates a new in-memory title stats store.
func NewTitleStatsStore() *TitleStatsStore {
	return &TitleStatsStore{
		runs: make(map[string]statsRun),
	}
}

// Compile-time interface check.
var _ storage.TitleStatsStore = (*TitleStatsStore)(nil)

// InsertRun stores the fitted table of a run. Returns ErrDuplicateKey if the run exists.
func (s *TitleStatsStore) InsertRun(_ context.Context, runID string, table *domain.StatsTable) error {
	if runID == "" || table == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; exists {
		return storage.ErrDuplicateKey
	}

	stats := table.Stats()
	for i := range stats {
		stats[i] = cloneStat(stats[i])
	}
	s.runs[runID] = statsRun{minSamples: table.MinSamples, stats: stats}
	return nil
}

// GetByRun retrieves the fitted table of a run. Returns ErrNotFound if the run is unknown.
func (s *TitleStatsStore) GetByRun(_ context.Context, runID string) (*domain.StatsTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	stats := make([]domain.SurpriseStat, len(run.stats))
	for i, st := range run.stats {
		stats[i] = cloneStat(st)
	}
	return domain.NewStatsTable(run.minSamples, stats), nil
}

func cloneStat(s domain.SurpriseStat) domain.SurpriseStat {
	s.Raw.Mu = clonePtr(s.Raw.Mu)
	s.Raw.Sigma = clonePtr(s.Raw.Sigma)
	s.Directional.Mu = clonePtr(s.Directional.Mu)
	s.Directional.Sigma = clonePtr(s.Directional.Sigma)
	return s
}
