package postgres

import (
	"context"
	"fmt"

	"fx-calendar-lab/internal/storage"
)

// CheckpointStore is a PostgreSQL implementation of storage.CheckpointStore.
// Uses the ingest_checkpoints table keyed by (source, location).
type CheckpointStore struct {
	pool *Pool
}

// NewCheckpointStore creates a new PostgreSQL checkpoint store.
func NewCheckpointStore(pool *Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Get returns the checkpoint of a source location.
func (s *CheckpointStore) Get(ctx context.Context, source, location string) (*storage.IngestCheckpoint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT source, location, content_sha, row_count, updated_at
		FROM ingest_checkpoints
		WHERE source = $1 AND location = $2
	`, source, location)

	var cp storage.IngestCheckpoint
	err := row.Scan(&cp.Source, &cp.Location, &cp.ContentSHA, &cp.Rows, &cp.UpdatedAt)
	if err != nil {
		return nil, mapError("get checkpoint", err)
	}
	cp.UpdatedAt = cp.UpdatedAt.UTC()
	return &cp, nil
}

// Set saves the checkpoint of a source location.
// Uses upsert to handle initial insert and subsequent updates.
func (s *CheckpointStore) Set(ctx context.Context, cp *storage.IngestCheckpoint) error {
	if cp == nil || cp.Source == "" || cp.Location == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_checkpoints (source, location, content_sha, row_count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source, location) DO UPDATE
		SET content_sha = EXCLUDED.content_sha,
		    row_count = EXCLUDED.row_count,
		    updated_at = EXCLUDED.updated_at
	`, cp.Source, cp.Location, cp.ContentSHA, cp.Rows, cp.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	return nil
}

// List returns all checkpoints ordered by (source, location).
func (s *CheckpointStore) List(ctx context.Context) ([]*storage.IngestCheckpoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source, location, content_sha, row_count, updated_at
		FROM ingest_checkpoints
		ORDER BY source ASC, location ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var result []*storage.IngestCheckpoint
	for rows.Next() {
		var cp storage.IngestCheckpoint
		if err := rows.Scan(&cp.Source, &cp.Location, &cp.ContentSHA, &cp.Rows, &cp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint row: %w", err)
		}
		cp.UpdatedAt = cp.UpdatedAt.UTC()
		result = append(result, &cp)
	}

	return result, rows.Err()
}
