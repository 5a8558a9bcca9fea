package storage

import (
	"context"
	"time"
)

// IngestCheckpoint records the last ingested content of one source location.
type IngestCheckpoint struct {
	Source     string    // adapter name
	Location   string    // file path or URL
	ContentSHA string    // hex SHA-256 of the ingested bytes
	Rows       int       // raw rows read
	UpdatedAt  time.Time // UTC
}

// CheckpointStore provides persistence for ingest state.
// This enables re-running ingestion over unchanged inputs without re-reading them.
type CheckpointStore interface {
	// Get returns the checkpoint of a source location.
	// Returns ErrNotFound if none has been saved yet.
	Get(ctx context.Context, source, location string) (*IngestCheckpoint, error)

	// Set saves the checkpoint of a source location, replacing any previous one.
	Set(ctx context.Context, cp *IngestCheckpoint) error

	// List returns all checkpoints ordered by (source, location).
	List(ctx context.Context) ([]*IngestCheckpoint, error)
}
