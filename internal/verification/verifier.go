// Package verification recomputes a stored run from its own scored corpus and
// reports every field where the stored outputs diverge from the recomputation.
package verification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/projection"
	"fx-calendar-lab/internal/signalfilter"
	"fx-calendar-lab/internal/storage"
	"fx-calendar-lab/internal/surprise"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// ErrRunNotFound is returned when no scored corpus is stored under a run id.
var ErrRunNotFound = errors.New("run not found")

// FieldDivergence represents a mismatch between stored and recomputed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // recomputed value
}

// ItemResult is the comparison of one scored event or one pair signal.
type ItemResult struct {
	Key         string // event_id or signal_id
	Match       bool
	Divergences []FieldDivergence
}

// Report contains the results of verifying one run.
type Report struct {
	RunID string

	Events          int
	MatchedEvents   int
	DivergentEvents []ItemResult

	Signals          int // stored signals across both stages
	MatchedSignals   int
	DivergentSignals []ItemResult
}

// OK reports whether every stored row matched its recomputation.
func (r *Report) OK() bool {
	return len(r.DivergentEvents) == 0 && len(r.DivergentSignals) == 0
}

// RunVerifier recomputes runs from stored scored corpora.
type RunVerifier struct {
	scoredStore storage.ScoredEventStore
	signalStore storage.PairSignalStore
	scorer      *surprise.Scorer
	pairs       []string
	filter      signalfilter.Config
}

// Options contains configuration for creating a RunVerifier. Scorer, pairs and
// filter must match the settings the run was produced with.
type Options struct {
	ScoredStore storage.ScoredEventStore
	SignalStore storage.PairSignalStore // optional; nil skips signal checks
	Scorer      *surprise.Scorer        // nil: built-in directions, default sample gate
	Pairs       []string                // nil: projection.DefaultPairs
	Filter      *signalfilter.Config    // nil: signalfilter.DefaultConfig()
}

// NewRunVerifier creates a new RunVerifier.
func NewRunVerifier(opts Options) (*RunVerifier, error) {
	if opts.ScoredStore == nil {
		return nil, errors.New("run verifier needs a scored event store")
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = surprise.NewScorer(nil, 0)
	}
	pairs := opts.Pairs
	if pairs == nil {
		pairs = projection.DefaultPairs
	}
	pairs, err := projection.ValidatePairs(pairs)
	if err != nil {
		return nil, err
	}
	filter := signalfilter.DefaultConfig()
	if opts.Filter != nil {
		filter = *opts.Filter
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return &RunVerifier{
		scoredStore: opts.ScoredStore,
		signalStore: opts.SignalStore,
		scorer:      scorer,
		pairs:       pairs,
		filter:      filter,
	}, nil
}

// Verify refits and rescores the stored corpus of runID, re-projects and
// re-filters it, and compares every stored row with its recomputation.
func (v *RunVerifier) Verify(ctx context.Context, runID string) (*Report, error) {
	stored, err := v.scoredStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load scored events: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	events := make([]*domain.Event, len(stored))
	for i, se := range stored {
		events[i] = se.Event.Clone()
	}
	rescored, _ := v.scorer.FitScore(events)

	report := &Report{RunID: runID, Events: len(stored)}
	byID := make(map[string]*domain.ScoredEvent, len(rescored))
	for _, se := range rescored {
		byID[se.EventID] = se
	}
	for _, se := range stored {
		res := ItemResult{Key: se.EventID}
		if again, ok := byID[se.EventID]; ok {
			res.Divergences = CompareScoredEvents(se, again)
		} else {
			res.Divergences = []FieldDivergence{{Field: "EventID", Expected: se.EventID, Actual: nil}}
		}
		res.Match = len(res.Divergences) == 0
		if res.Match {
			report.MatchedEvents++
		} else {
			report.DivergentEvents = append(report.DivergentEvents, res)
		}
	}

	if v.signalStore == nil {
		return report, nil
	}

	projected := projection.BuildPairSignals(rescored, v.pairs)
	filtered, _, err := signalfilter.Apply(projected, v.filter)
	if err != nil {
		return nil, fmt.Errorf("refilter: %w", err)
	}
	for _, stage := range []struct {
		stage domain.SignalStage
		rows  []*domain.PairSignal
	}{
		{domain.StageProjected, projected},
		{domain.StageFiltered, filtered},
	} {
		storedRows, err := v.signalStore.GetByRun(ctx, runID, stage.stage)
		if err != nil {
			return nil, fmt.Errorf("load %s signals: %w", stage.stage, err)
		}
		v.compareStage(report, stage.stage, storedRows, stage.rows)
	}
	return report, nil
}

func (v *RunVerifier) compareStage(report *Report, stage domain.SignalStage, stored, recomputed []*domain.PairSignal) {
	byID := make(map[string]*domain.PairSignal, len(recomputed))
	for _, s := range recomputed {
		byID[s.SignalID] = s
	}

	seen := make(map[string]bool, len(stored))
	for _, s := range stored {
		seen[s.SignalID] = true
		report.Signals++
		res := ItemResult{Key: string(stage) + ":" + s.SignalID}
		if again, ok := byID[s.SignalID]; ok {
			res.Divergences = ComparePairSignals(s, again)
		} else {
			res.Divergences = []FieldDivergence{{Field: "SignalID", Expected: s.SignalID, Actual: nil}}
		}
		res.Match = len(res.Divergences) == 0
		if res.Match {
			report.MatchedSignals++
		} else {
			report.DivergentSignals = append(report.DivergentSignals, res)
		}
	}

	// Rows the recomputation produces but the run never stored.
	var missing []string
	for id := range byID {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	for _, id := range missing {
		report.DivergentSignals = append(report.DivergentSignals, ItemResult{
			Key:         string(stage) + ":" + id,
			Divergences: []FieldDivergence{{Field: "SignalID", Expected: nil, Actual: id}},
		})
	}
}

// CompareScoredEvents compares the derived fields of two scored events.
// Uses FloatTolerance for float64 comparisons.
func CompareScoredEvents(stored, recomputed *domain.ScoredEvent) []FieldDivergence {
	var d []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		d = append(d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.EventID != recomputed.EventID {
		add("EventID", stored.EventID, recomputed.EventID)
	}
	if stored.TitleNorm != recomputed.TitleNorm {
		add("TitleNorm", stored.TitleNorm, recomputed.TitleNorm)
	}
	if !timePtrEquals(stored.WhenUTC, recomputed.WhenUTC) {
		add("WhenUTC", stored.WhenISO(), recomputed.WhenISO())
	}
	if stored.Direction != recomputed.Direction {
		add("Direction", stored.Direction, recomputed.Direction)
	}
	if !boolPtrEquals(stored.GoodIsHigher, recomputed.GoodIsHigher) {
		add("GoodIsHigher", deref(stored.GoodIsHigher), deref(recomputed.GoodIsHigher))
	}
	if !floatPtrEquals(stored.SurpriseRaw, recomputed.SurpriseRaw) {
		add("SurpriseRaw", deref(stored.SurpriseRaw), deref(recomputed.SurpriseRaw))
	}
	if !intPtrEquals(stored.SurpriseSign, recomputed.SurpriseSign) {
		add("SurpriseSign", deref(stored.SurpriseSign), deref(recomputed.SurpriseSign))
	}
	if !floatPtrEquals(stored.SurpriseZ, recomputed.SurpriseZ) {
		add("SurpriseZ", deref(stored.SurpriseZ), deref(recomputed.SurpriseZ))
	}
	if !floatPtrEquals(stored.DirectionalSurprise, recomputed.DirectionalSurprise) {
		add("DirectionalSurprise", deref(stored.DirectionalSurprise), deref(recomputed.DirectionalSurprise))
	}
	if !floatPtrEquals(stored.DirectionalZ, recomputed.DirectionalZ) {
		add("DirectionalZ", deref(stored.DirectionalZ), deref(recomputed.DirectionalZ))
	}
	if !intPtrEquals(stored.CCStrengthSign, recomputed.CCStrengthSign) {
		add("CCStrengthSign", deref(stored.CCStrengthSign), deref(recomputed.CCStrengthSign))
	}
	return d
}

// ComparePairSignals compares two pair signals with the same signal id.
func ComparePairSignals(stored, recomputed *domain.PairSignal) []FieldDivergence {
	var d []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		d = append(d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.EventID != recomputed.EventID {
		add("EventID", stored.EventID, recomputed.EventID)
	}
	if stored.Pair != recomputed.Pair {
		add("Pair", stored.Pair, recomputed.Pair)
	}
	if stored.DirectionSign != recomputed.DirectionSign {
		add("DirectionSign", stored.DirectionSign, recomputed.DirectionSign)
	}
	if stored.CCStrengthSign != recomputed.CCStrengthSign {
		add("CCStrengthSign", stored.CCStrengthSign, recomputed.CCStrengthSign)
	}
	if !timePtrEquals(stored.WhenUTC, recomputed.WhenUTC) {
		add("WhenUTC", stored.WhenISO(), recomputed.WhenISO())
	}
	if stored.Impact != recomputed.Impact {
		add("Impact", stored.Impact, recomputed.Impact)
	}
	if !floatPtrEquals(stored.SurpriseZ, recomputed.SurpriseZ) {
		add("SurpriseZ", deref(stored.SurpriseZ), deref(recomputed.SurpriseZ))
	}
	return d
}

// floatEquals compares two floats with tolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

func floatPtrEquals(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return floatEquals(*a, *b)
}

func intPtrEquals(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func boolPtrEquals(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func timePtrEquals(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// deref returns the pointed-to value, or nil.
func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
