package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"fx-calendar-lab/internal/config"
	"fx-calendar-lab/internal/ingestion"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/observability"
	"fx-calendar-lab/internal/orchestrator"
	"fx-calendar-lab/internal/storage"
	chstore "fx-calendar-lab/internal/storage/clickhouse"
	"fx-calendar-lab/internal/storage/memory"
	pgstore "fx-calendar-lab/internal/storage/postgres"
	"fx-calendar-lab/internal/surprise"
)

// app holds the configuration, stores and metrics shared by the commands.
type app struct {
	cfg      *config.PipelineConfig
	registry *prometheus.Registry
	metrics  *observability.Metrics

	events      storage.EventStore
	checkpoints storage.CheckpointStore
	scored      storage.ScoredEventStore
	signals     storage.PairSignalStore
	stats       storage.TitleStatsStore

	inMemory bool
	closers  []func()
}

// newApp loads the pipeline config and opens the stores named by the
// environment. Event and checkpoint stores use PostgreSQL when POSTGRES_DSN is
// set; run outputs use ClickHouse when CLICKHOUSE_DSN is set. Anything unset
// falls back to memory.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	a := &app{
		cfg:      cfg,
		registry: registry,
		metrics:  observability.NewMetrics(env.MetricsNamespace, registry),
	}

	if env.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, env.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.events = pgstore.NewEventStore(pool)
		a.checkpoints = pgstore.NewCheckpointStore(pool)
		log.Info().Str("component", "cli").Msg("using postgres event store")
	} else {
		a.events = memory.NewEventStore()
		a.checkpoints = memory.NewCheckpointStore()
		a.inMemory = true
		log.Info().Str("component", "cli").Msg("POSTGRES_DSN not set, using in-memory event store")
	}

	if env.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, env.ClickhouseDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		a.closers = append(a.closers, func() { _ = conn.Close() })
		a.scored = chstore.NewScoredEventStore(conn)
		a.signals = chstore.NewPairSignalStore(conn)
		a.stats = chstore.NewTitleStatsStore(conn)
	} else {
		a.scored = memory.NewScoredEventStore()
		a.signals = memory.NewPairSignalStore()
		a.stats = memory.NewTitleStatsStore()
	}
	return a, nil
}

// Close releases every open connection.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) normalizer() (*normalization.Normalizer, error) {
	resolver, err := a.cfg.Resolver()
	if err != nil {
		return nil, err
	}
	return normalization.NewNormalizer(resolver), nil
}

func (a *app) scorer() (*surprise.Scorer, error) {
	classifier, err := a.cfg.Classifier()
	if err != nil {
		return nil, err
	}
	return surprise.NewScorer(classifier, a.cfg.MinSamples), nil
}

// ingest runs every configured input through the ingestion runner.
func (a *app) ingest(ctx context.Context, force bool) (*ingestion.Result, error) {
	inputs, err := a.cfg.IngestInputs()
	if err != nil {
		return nil, err
	}
	normalizer, err := a.normalizer()
	if err != nil {
		return nil, err
	}
	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Normalizer:  normalizer,
		EventStore:  a.events,
		Checkpoints: a.checkpoints,
		Metrics:     a.metrics,
		Force:       force,
	})
	return runner.Run(ctx, inputs)
}

// prepare fills an in-memory event store from the configured inputs.
// A persistent store is used as is.
func (a *app) prepare(ctx context.Context) error {
	if !a.inMemory {
		return nil
	}
	if len(a.cfg.Inputs) == 0 {
		return fmt.Errorf("no inputs configured and no POSTGRES_DSN set; nothing to process (try the demo command)")
	}
	res, err := a.ingest(ctx, true)
	if err != nil {
		return err
	}
	printIngest(res)
	return nil
}

func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	scorer, err := a.scorer()
	if err != nil {
		return nil, err
	}
	pairs, err := a.cfg.PairList()
	if err != nil {
		return nil, err
	}
	filter, err := a.cfg.FilterConfig()
	if err != nil {
		return nil, err
	}
	from, to, err := a.cfg.YearRange()
	if err != nil {
		return nil, err
	}
	return orchestrator.New(orchestrator.Options{
		EventStore:  a.events,
		ScoredStore: a.scored,
		SignalStore: a.signals,
		StatsStore:  a.stats,
		Scorer:      scorer,
		Pairs:       pairs,
		Filter:      &filter,
		YearFrom:    from,
		YearTo:      to,
		Metrics:     a.metrics,
		Verbose:     verbose,
	})
}
