package storage

import (
	"context"

	"fx-calendar-lab/internal/domain"
)

// UpsertResult counts what an EventStore.Upsert did with each incoming event.
type UpsertResult struct {
	Inserted  int // new event_id
	Updated   int // existing event filled or revised by MergeFill
	Unchanged int // existing event, nothing new
}

// Add accumulates another result.
func (r *UpsertResult) Add(o UpsertResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
}

// Total returns the number of events processed.
func (r UpsertResult) Total() int {
	return r.Inserted + r.Updated + r.Unchanged
}

// EventStore provides access to the canonical events table.
// Identity fields are immutable; value fields follow domain.Event.MergeFill.
type EventStore interface {
	// Upsert inserts new events and merges later observations into existing ones.
	Upsert(ctx context.Context, events []*domain.Event) (UpsertResult, error)

	// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, eventID string) (*domain.Event, error)

	// GetAll retrieves every event in canonical order
	// (when_utc ASC NULLS LAST, date_local, currency, event_id).
	GetAll(ctx context.Context) ([]*domain.Event, error)

	// GetByDateRange retrieves events with date_local within [from, to] (inclusive, YYYY-MM-DD).
	GetByDateRange(ctx context.Context, from, to string) ([]*domain.Event, error)

	// GetByCurrency retrieves all events of one currency in canonical order.
	GetByCurrency(ctx context.Context, currency string) ([]*domain.Event, error)
}

// ScoredEventStore provides access to scored_events storage, one batch per run.
type ScoredEventStore interface {
	// InsertRun stores the scored corpus of a run. Returns ErrDuplicateKey if the run exists.
	InsertRun(ctx context.Context, runID string, events []*domain.ScoredEvent) error

	// GetByRun retrieves the scored corpus of a run in canonical event order.
	GetByRun(ctx context.Context, runID string) ([]*domain.ScoredEvent, error)
}

// PairSignalStore provides access to pair_signals storage, one batch per (run, stage).
type PairSignalStore interface {
	// InsertRun stores the signals of a run stage. Returns ErrDuplicateKey if it exists.
	InsertRun(ctx context.Context, runID string, stage domain.SignalStage, signals []*domain.PairSignal) error

	// GetByRun retrieves the signals of a run stage ordered by (when_utc, currency, event_id, pair).
	GetByRun(ctx context.Context, runID string, stage domain.SignalStage) ([]*domain.PairSignal, error)
}

// TitleStatsStore provides access to title_stats storage, one table per run.
type TitleStatsStore interface {
	// InsertRun stores the fitted table of a run. Returns ErrDuplicateKey if the run exists.
	InsertRun(ctx context.Context, runID string, table *domain.StatsTable) error

	// GetByRun retrieves the fitted table of a run. Returns ErrNotFound if the run is unknown.
	GetByRun(ctx context.Context, runID string) (*domain.StatsTable, error)
}
