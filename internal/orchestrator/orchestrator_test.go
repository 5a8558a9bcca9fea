// Package orchestrator provides E2E pipeline orchestration tests.
package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/observability"
	"fx-calendar-lab/internal/pipeline"
	"fx-calendar-lab/internal/signalfilter"
	"fx-calendar-lab/internal/storage"
	"fx-calendar-lab/internal/storage/memory"
	"fx-calendar-lab/internal/timeresolve"
)

type testStores struct {
	events  *memory.EventStore
	scored  *memory.ScoredEventStore
	signals *memory.PairSignalStore
	stats   *memory.TitleStatsStore
}

func createTestStores() *testStores {
	return &testStores{
		events:  memory.NewEventStore(),
		scored:  memory.NewScoredEventStore(),
		signals: memory.NewPairSignalStore(),
		stats:   memory.NewTitleStatsStore(),
	}
}

func newNormalizer(t *testing.T) *normalization.Normalizer {
	t.Helper()
	resolver, err := timeresolve.NewResolver(nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return normalization.NewNormalizer(resolver)
}

func loadFixtures(t *testing.T, stores *testStores) {
	t.Helper()
	if _, err := pipeline.LoadFixtures(context.Background(), newNormalizer(t), stores.events); err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
}

func fixedRunID(id string) func() string {
	return func() string { return id }
}

func TestOrchestrator_Run_EmptyCorpus(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	orch, err := New(Options{
		EventStore:  stores.events,
		ScoredStore: stores.scored,
		SignalStore: stores.signals,
		StatsStore:  stores.stats,
		NewRunID:    fixedRunID("run-empty"),
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.RunID != "run-empty" {
		t.Errorf("expected run id run-empty, got %s", result.RunID)
	}
	if result.Events != 0 {
		t.Errorf("expected 0 events, got %d", result.Events)
	}
	if len(result.Projected) != 0 || len(result.Filtered) != 0 {
		t.Errorf("expected no signals, got %d projected, %d filtered", len(result.Projected), len(result.Filtered))
	}
	if result.Table.Len() != 0 {
		t.Errorf("expected empty stats table, got %d groups", result.Table.Len())
	}
}

func TestOrchestrator_Run_FixtureCorpus(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	loadFixtures(t, stores)

	orch, err := New(Options{
		EventStore:  stores.events,
		ScoredStore: stores.scored,
		SignalStore: stores.signals,
		StatsStore:  stores.stats,
		NewRunID:    fixedRunID("run-1"),
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Events != 67 {
		t.Errorf("expected 67 events, got %d", result.Events)
	}
	if len(result.Scored) != 67 {
		t.Errorf("expected 67 scored events, got %d", len(result.Scored))
	}
	if result.Table.Len() != 7 {
		t.Errorf("expected 7 title groups, got %d", result.Table.Len())
	}

	// 36 USD directional events x 7 pairs + 12 EUR events x EURUSD
	if len(result.Projected) != 264 {
		t.Errorf("expected 264 projected rows, got %d", len(result.Projected))
	}

	// payrolls and the unemployment rate share a bucket every month
	if result.FilterStats.Events != 48 {
		t.Errorf("expected 48 distinct events, got %d", result.FilterStats.Events)
	}
	if result.FilterStats.BucketWinners != 36 {
		t.Errorf("expected 36 bucket winners, got %d", result.FilterStats.BucketWinners)
	}
	if len(result.Filtered) != 180 {
		t.Errorf("expected 180 filtered rows, got %d", len(result.Filtered))
	}

	// Persisted outputs match the result
	scored, err := stores.scored.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get scored: %v", err)
	}
	if len(scored) != 67 {
		t.Errorf("expected 67 stored scored events, got %d", len(scored))
	}
	filtered, err := stores.signals.GetByRun(ctx, "run-1", domain.StageFiltered)
	if err != nil {
		t.Fatalf("get filtered: %v", err)
	}
	if len(filtered) != len(result.Filtered) {
		t.Errorf("expected %d stored filtered rows, got %d", len(result.Filtered), len(filtered))
	}
	projected, err := stores.signals.GetByRun(ctx, "run-1", domain.StageProjected)
	if err != nil {
		t.Fatalf("get projected: %v", err)
	}
	if len(projected) != len(result.Projected) {
		t.Errorf("expected %d stored projected rows, got %d", len(result.Projected), len(projected))
	}
	table, err := stores.stats.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if table.Len() != 7 {
		t.Errorf("expected 7 stored title groups, got %d", table.Len())
	}
}

func TestOrchestrator_Run_Deterministic(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	loadFixtures(t, stores)

	run := func() *RunResult {
		orch, err := New(Options{EventStore: stores.events})
		if err != nil {
			t.Fatalf("new orchestrator: %v", err)
		}
		result, err := orch.Run(ctx)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result
	}

	a, b := run(), run()
	if a.RunID == b.RunID {
		t.Errorf("expected distinct run ids, got %s twice", a.RunID)
	}
	if len(a.Filtered) != len(b.Filtered) {
		t.Fatalf("filtered length differs: %d vs %d", len(a.Filtered), len(b.Filtered))
	}
	for i := range a.Filtered {
		if a.Filtered[i].SignalID != b.Filtered[i].SignalID {
			t.Errorf("row %d differs: %s vs %s", i, a.Filtered[i].SignalID, b.Filtered[i].SignalID)
		}
	}
}

func TestOrchestrator_Run_DuplicateRunID(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	loadFixtures(t, stores)

	orch, err := New(Options{
		EventStore: stores.events,
		StatsStore: stores.stats,
		NewRunID:   fixedRunID("run-dup"),
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	if _, err := orch.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err = orch.Run(ctx)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestOrchestrator_Run_YearRange(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	loadFixtures(t, stores)

	orch, err := New(Options{EventStore: stores.events, YearFrom: 2025, YearTo: 2025})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Events != 0 {
		t.Errorf("expected 0 events in 2025, got %d", result.Events)
	}

	orch, err = New(Options{EventStore: stores.events, YearFrom: 2024})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	result, err = orch.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Events != 67 {
		t.Errorf("expected 67 events from 2024 on, got %d", result.Events)
	}
}

func TestOrchestrator_Run_FilterConfig(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	loadFixtures(t, stores)

	cfg := signalfilter.DefaultConfig()
	cfg.MinImpact = 3
	orch, err := New(Options{
		EventStore: stores.events,
		Pairs:      []string{"eurusd", "USDJPY"},
		Filter:     &cfg,
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	if got := orch.Pairs(); len(got) != 2 || got[0] != "EURUSD" {
		t.Errorf("expected normalized pairs, got %v", got)
	}

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, s := range result.Filtered {
		if s.Impact != domain.ImpactHigh {
			t.Errorf("row %s/%s has impact %s", s.EventID, s.Pair, s.Impact)
		}
		if s.Pair != "EURUSD" && s.Pair != "USDJPY" {
			t.Errorf("unexpected pair %s", s.Pair)
		}
	}
	// one high-impact USD winner per month, on both pairs
	if len(result.Filtered) != 24 {
		t.Errorf("expected 24 filtered rows, got %d", len(result.Filtered))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	stores := createTestStores()
	badFilter := signalfilter.DefaultConfig()
	badFilter.MinImpact = 5

	tests := []struct {
		name string
		opts Options
	}{
		{"malformed pair", Options{EventStore: stores.events, Pairs: []string{"EURUSDX"}}},
		{"empty pairs", Options{EventStore: stores.events, Pairs: []string{}}},
		{"bad filter", Options{EventStore: stores.events, Filter: &badFilter}},
		{"reversed years", Options{EventStore: stores.events, YearFrom: 2024, YearTo: 2020}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := New(Options{}); err == nil {
		t.Error("expected error without event store")
	}
}

func TestOrchestrator_Run_DirectionalSurpriseEndToEnd(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	n := newNormalizer(t)

	raws := []domain.RawEvent{
		{DateLocal: "2025-01-10", TimeLocal: "8:30am", Currency: "USD", Impact: "high", Title: "Non-Farm Employment Change", Actual: "256K", Forecast: "164K"},
		{DateLocal: "2025-01-10", TimeLocal: "8:30am", Currency: "USD", Impact: "high", Title: "Unemployment Rate", Actual: "4.1%", Forecast: "4.2%"},
		{DateLocal: "2025-01-10", TimeLocal: "10:00am", Currency: "USD", Impact: "low", Title: "Some Obscure Indicator", Actual: "1.0", Forecast: "0.5"},
	}
	events, issues := n.NormalizeAll(raws)
	if len(issues) > 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if _, err := stores.events.Upsert(ctx, events); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	orch, err := New(Options{EventStore: stores.events})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	defined, undefined := 0, 0
	for _, se := range result.Scored {
		if se.DirectionalSurprise != nil {
			defined++
		} else {
			undefined++
		}
	}
	if defined != 2 || undefined != 1 {
		t.Errorf("expected 2 defined and 1 null directional surprise, got %d and %d", defined, undefined)
	}

	// groups of one never reach the sample gate
	for _, se := range result.Scored {
		if se.SurpriseZ != nil {
			t.Errorf("event %s has z-score with one observation", se.TitleNorm)
		}
	}
}

func TestOrchestrator_Run_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	loadFixtures(t, stores)

	m := observability.NewMetrics("test", prometheus.NewRegistry())
	orch, err := New(Options{EventStore: stores.events, Metrics: m})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	if _, err := orch.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok run, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventsScored); got != 67 {
		t.Errorf("expected 67 scored events, got %v", got)
	}
	if got := testutil.ToFloat64(m.PairSignals.WithLabelValues("projected")); got != 264 {
		t.Errorf("expected 264 projected signals, got %v", got)
	}
	if got := testutil.ToFloat64(m.FilterStageRows.WithLabelValues("bucket_winners")); got != 36 {
		t.Errorf("expected 36 bucket winners, got %v", got)
	}
}
