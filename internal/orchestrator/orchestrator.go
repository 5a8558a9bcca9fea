// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: load -> fit -> score -> project -> filter -> persist
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/observability"
	"fx-calendar-lab/internal/projection"
	"fx-calendar-lab/internal/signalfilter"
	"fx-calendar-lab/internal/storage"
	"fx-calendar-lab/internal/surprise"
	"fx-calendar-lab/internal/timeresolve"
)

// Orchestrator coordinates one batch run over the stored event corpus.
type Orchestrator struct {
	// Stores
	eventStore  storage.EventStore
	scoredStore storage.ScoredEventStore
	signalStore storage.PairSignalStore
	statsStore  storage.TitleStatsStore

	// Configs
	scorer   *surprise.Scorer
	pairs    []string
	filter   signalfilter.Config
	yearFrom int
	yearTo   int

	// Options
	metrics  *observability.Metrics
	newRunID func() string
	verbose  bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required store
	EventStore storage.EventStore

	// Optional run output stores; nil skips persistence of that output
	ScoredStore storage.ScoredEventStore
	SignalStore storage.PairSignalStore
	StatsStore  storage.TitleStatsStore

	// Scoring, projection and filter configs
	Scorer   *surprise.Scorer     // nil: built-in directions, default sample gate
	Pairs    []string             // nil: projection.DefaultPairs
	Filter   *signalfilter.Config // nil: signalfilter.DefaultConfig()
	YearFrom int                  // inclusive local-year range; 0, 0 means all
	YearTo   int

	// Options
	Metrics  *observability.Metrics
	NewRunID func() string // default: uuid.NewString
	Verbose  bool
}

// New creates a new Orchestrator. Pair codes and filter settings are validated
// here so configuration errors surface before any event is read.
func New(opts Options) (*Orchestrator, error) {
	if opts.EventStore == nil {
		return nil, errors.New("orchestrator needs an event store")
	}

	pairs := projection.DefaultPairs
	if opts.Pairs != nil {
		var err error
		if pairs, err = projection.ValidatePairs(opts.Pairs); err != nil {
			return nil, err
		}
	}

	filter := signalfilter.DefaultConfig()
	if opts.Filter != nil {
		filter = *opts.Filter
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if opts.YearFrom > opts.YearTo && opts.YearTo != 0 {
		return nil, fmt.Errorf("%w: year range %d-%d is reversed", domain.ErrInvalidConfig, opts.YearFrom, opts.YearTo)
	}

	scorer := opts.Scorer
	if scorer == nil {
		scorer = surprise.NewScorer(nil, 0)
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	return &Orchestrator{
		eventStore:  opts.EventStore,
		scoredStore: opts.ScoredStore,
		signalStore: opts.SignalStore,
		statsStore:  opts.StatsStore,
		scorer:      scorer,
		pairs:       pairs,
		filter:      filter,
		yearFrom:    opts.YearFrom,
		yearTo:      opts.YearTo,
		metrics:     opts.Metrics,
		newRunID:    newRunID,
		verbose:     opts.Verbose,
	}, nil
}

// Pairs returns the validated pair universe.
func (o *Orchestrator) Pairs() []string {
	return append([]string(nil), o.pairs...)
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID       string
	Events      int // events in the year range
	Scored      []*domain.ScoredEvent
	Table       *domain.StatsTable
	Projected   []*domain.PairSignal
	Filtered    []*domain.PairSignal
	FilterStats signalfilter.Stats
}

// Run executes the full batch.
// Phases:
//  1. Load events and apply the year range
//  2. Fit title statistics and score every event
//  3. Project currency-strength signs onto the pair universe
//  4. Filter pair signals
//  5. Persist run outputs
func (o *Orchestrator) Run(ctx context.Context) (result *RunResult, err error) {
	result = &RunResult{RunID: o.newRunID()}
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.RecordPipelineRun(status)
	}()

	// Phase 1: Load
	start := time.Now()
	o.log("Phase 1: Loading events...")
	events, err := o.loadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load events) failed: %w", err)
	}
	result.Events = len(events)
	o.metrics.RecordPhase("load", time.Since(start))
	o.log("  Loaded %d events", len(events))

	// Phase 2: Fit and score
	start = time.Now()
	o.log("Phase 2: Scoring events...")
	result.Scored, result.Table = o.scorer.FitScore(events)
	rawOK, dirOK := result.Table.CountOK()
	o.metrics.RecordScoring(len(result.Scored), result.Table.Len(), rawOK, dirOK)
	o.metrics.RecordPhase("score", time.Since(start))
	o.log("  %d title groups (%d raw ok, %d directional ok)", result.Table.Len(), rawOK, dirOK)

	// Phase 3: Projection
	start = time.Now()
	o.log("Phase 3: Projecting pair signals...")
	result.Projected = projection.BuildPairSignals(result.Scored, o.pairs)
	o.metrics.RecordPairSignals(string(domain.StageProjected), len(result.Projected))
	o.metrics.RecordPhase("project", time.Since(start))
	o.log("  Projected %d rows over %d pairs", len(result.Projected), len(o.pairs))

	// Phase 4: Filter
	start = time.Now()
	o.log("Phase 4: Filtering signals...")
	result.Filtered, result.FilterStats, err = signalfilter.Apply(result.Projected, o.filter)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (filter) failed: %w", err)
	}
	o.recordFilterStats(result.FilterStats)
	o.metrics.RecordPairSignals(string(domain.StageFiltered), len(result.Filtered))
	o.metrics.RecordPhase("filter", time.Since(start))
	o.log("  Kept %d rows from %d events", len(result.Filtered), result.FilterStats.Kept)

	// Phase 5: Persist
	start = time.Now()
	o.log("Phase 5: Persisting run %s...", result.RunID)
	if err := o.persist(ctx, result); err != nil {
		return nil, fmt.Errorf("phase 5 (persist) failed: %w", err)
	}
	o.metrics.RecordPhase("persist", time.Since(start))

	log.Info().Str("component", "orchestrator").
		Str("run_id", result.RunID).
		Int("events", result.Events).
		Int("scored", len(result.Scored)).
		Int("projected", len(result.Projected)).
		Int("filtered", len(result.Filtered)).
		Msg("pipeline completed")

	return result, nil
}

// loadEvents loads the corpus in canonical order and keeps the configured years.
func (o *Orchestrator) loadEvents(ctx context.Context) ([]*domain.Event, error) {
	all, err := o.eventStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	normalization.SortEvents(all)
	if o.yearFrom == 0 && o.yearTo == 0 {
		return all, nil
	}

	out := make([]*domain.Event, 0, len(all))
	for _, e := range all {
		if o.inYearRange(e.DateLocal) {
			out = append(out, e)
		}
	}
	return out, nil
}

// inYearRange reports whether the local date falls in the range; unparsable
// dates never do.
func (o *Orchestrator) inYearRange(dateLocal string) bool {
	d, err := timeresolve.ParseDate(dateLocal)
	if err != nil {
		return false
	}
	y := d.Year()
	if o.yearFrom != 0 && y < o.yearFrom {
		return false
	}
	if o.yearTo != 0 && y > o.yearTo {
		return false
	}
	return true
}

// persist stores the run outputs in every configured store.
func (o *Orchestrator) persist(ctx context.Context, r *RunResult) error {
	if o.statsStore != nil {
		if err := o.statsStore.InsertRun(ctx, r.RunID, r.Table); err != nil {
			return fmt.Errorf("insert title stats: %w", err)
		}
	}
	if o.scoredStore != nil {
		if err := o.scoredStore.InsertRun(ctx, r.RunID, r.Scored); err != nil {
			return fmt.Errorf("insert scored events: %w", err)
		}
	}
	if o.signalStore != nil {
		if err := o.signalStore.InsertRun(ctx, r.RunID, domain.StageProjected, r.Projected); err != nil {
			return fmt.Errorf("insert projected signals: %w", err)
		}
		if err := o.signalStore.InsertRun(ctx, r.RunID, domain.StageFiltered, r.Filtered); err != nil {
			return fmt.Errorf("insert filtered signals: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) recordFilterStats(s signalfilter.Stats) {
	o.metrics.RecordFilterStage("input", s.Input)
	o.metrics.RecordFilterStage("timestamped", s.Timestamped)
	o.metrics.RecordFilterStage("thresholded", s.Thresholded)
	o.metrics.RecordFilterStage("in_session", s.InSession)
	o.metrics.RecordFilterStage("events", s.Events)
	o.metrics.RecordFilterStage("bucket_winners", s.BucketWinners)
	o.metrics.RecordFilterStage("kept", s.Kept)
	o.metrics.RecordFilterStage("output", s.Output)
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	level := zerolog.DebugLevel
	if o.verbose {
		level = zerolog.InfoLevel
	}
	log.WithLevel(level).Str("component", "orchestrator").Msgf(format, args...)
}
