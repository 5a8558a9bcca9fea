package memory

import (
	"context"
	"sort"
	"sync"

	"fx-calendar-lab/internal/storage"
)

type checkpointKey struct {
	source   string
	location string
}

// CheckpointStore is an in-memory implementation of storage.CheckpointStore.
type CheckpointStore struct {
	mu   sync.RWMutex
	data map[checkpointKey]storage.IngestCheckpoint
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		data: make(map[checkpointKey]storage.IngestCheckpoint),
	}
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Get returns the checkpoint of a source location.
func (s *CheckpointStore) Get(_ context.Context, source, location string) (*storage.IngestCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[checkpointKey{source: source, location: location}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &cp, nil
}

// Set saves the checkpoint of a source location.
func (s *CheckpointStore) Set(_ context.Context, cp *storage.IngestCheckpoint) error {
	if cp == nil || cp.Source == "" || cp.Location == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[checkpointKey{source: cp.Source, location: cp.Location}] = *cp
	return nil
}

// List returns all checkpoints ordered by (source, location).
func (s *CheckpointStore) List(_ context.Context) ([]*storage.IngestCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.IngestCheckpoint, 0, len(s.data))
	for _, cp := range s.data {
		c := cp
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source < result[j].Source
		}
		return result[i].Location < result[j].Location
	})
	return result, nil
}
