package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/observability"
	"fx-calendar-lab/internal/storage"
)

// InputResult reports what happened to one input.
type InputResult struct {
	Location string
	Source   string
	Rows     int
	Skipped  bool // content unchanged since the last checkpoint
	Upsert   storage.UpsertResult
	Issues   int
}

// Result is the outcome of one ingest run.
type Result struct {
	Inputs []InputResult
	Upsert storage.UpsertResult
	Issues []normalization.FieldIssue
}

// Rows returns the raw rows read across all inputs.
func (r *Result) Rows() int {
	n := 0
	for _, in := range r.Inputs {
		n += in.Rows
	}
	return n
}

// Runner loads inputs, normalizes each row and upserts the events.
type Runner struct {
	normalizer  *normalization.Normalizer
	events      storage.EventStore
	checkpoints storage.CheckpointStore
	metrics     *observability.Metrics
	force       bool
	clock       func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Normalizer  *normalization.Normalizer
	EventStore  storage.EventStore
	Checkpoints storage.CheckpointStore // optional; nil disables skipping
	Metrics     *observability.Metrics  // optional
	Force       bool                    // ingest even when the checkpoint matches
	Clock       func() time.Time        // default: time.Now
}

// NewRunner creates a new ingest runner.
func NewRunner(opts RunnerOptions) *Runner {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Runner{
		normalizer:  opts.Normalizer,
		events:      opts.EventStore,
		checkpoints: opts.Checkpoints,
		metrics:     opts.Metrics,
		force:       opts.Force,
		clock:       clock,
	}
}

// Run ingests every input in order. The first load, parse or store failure
// aborts the run; inputs already upserted stay stored.
func (r *Runner) Run(ctx context.Context, inputs []Input) (*Result, error) {
	if r.normalizer == nil || r.events == nil {
		return nil, errors.New("ingestion runner needs a normalizer and an event store")
	}

	result := &Result{}
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, issues, err := r.ingestOne(ctx, in)
		if err != nil {
			r.metrics.RecordIngestionFailure(in.Parser.Source().String())
			return result, fmt.Errorf("ingest %s: %w", in.Location, err)
		}

		result.Inputs = append(result.Inputs, res)
		result.Upsert.Add(res.Upsert)
		result.Issues = append(result.Issues, issues...)
	}
	return result, nil
}

func (r *Runner) ingestOne(ctx context.Context, in Input) (InputResult, []normalization.FieldIssue, error) {
	source := in.Parser.Source().String()
	res := InputResult{Location: in.Location, Source: source}

	data, err := os.ReadFile(in.Location)
	if err != nil {
		return res, nil, fmt.Errorf("read: %w", err)
	}
	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	if r.checkpoints != nil && !r.force {
		cp, err := r.checkpoints.Get(ctx, source, in.Location)
		switch {
		case err == nil && cp.ContentSHA == sha:
			res.Skipped = true
			res.Rows = cp.Rows
			r.metrics.RecordInputSkipped(source)
			log.Info().Str("component", "ingestion").Str("location", in.Location).
				Msg("input unchanged since last checkpoint, skipping")
			return res, nil, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return res, nil, fmt.Errorf("get checkpoint: %w", err)
		}
	}

	raws, err := in.Parser.Parse(data)
	if err != nil {
		return res, nil, err
	}
	res.Rows = len(raws)
	r.metrics.RecordRowsRead(source, len(raws))

	events, issues := r.normalizer.NormalizeAll(raws)
	for _, issue := range issues {
		r.metrics.RecordFieldIssue(issue.Field)
	}
	res.Issues = len(issues)

	upsert, err := r.events.Upsert(ctx, normalization.DedupeByID(events))
	if err != nil {
		return res, issues, fmt.Errorf("upsert events: %w", err)
	}
	res.Upsert = upsert
	r.metrics.RecordUpsert(upsert.Inserted, upsert.Updated, upsert.Unchanged)

	if r.checkpoints != nil {
		cp := &storage.IngestCheckpoint{
			Source:     source,
			Location:   in.Location,
			ContentSHA: sha,
			Rows:       len(raws),
			UpdatedAt:  r.clock().UTC(),
		}
		if err := r.checkpoints.Set(ctx, cp); err != nil {
			return res, issues, fmt.Errorf("set checkpoint: %w", err)
		}
	}

	log.Info().Str("component", "ingestion").
		Str("location", in.Location).
		Str("source", source).
		Int("rows", res.Rows).
		Int("inserted", upsert.Inserted).
		Int("updated", upsert.Updated).
		Int("unchanged", upsert.Unchanged).
		Int("issues", res.Issues).
		Msg("input ingested")
	return res, issues, nil
}
