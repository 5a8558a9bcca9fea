package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"fx-calendar-lab/internal/config"
	"fx-calendar-lab/internal/observability"
	"fx-calendar-lab/internal/pipeline"
	"fx-calendar-lab/internal/reporting"
	"fx-calendar-lab/internal/storage/memory"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the full pipeline over the built-in fixture calendar",
	Long: `Load the built-in 2024 fixture calendar into memory, run the pipeline
and write the quality report, golden dataset and signal CSVs. No database or
input files are needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		a := newMemoryApp(cfg)

		normalizer, err := a.normalizer()
		if err != nil {
			return err
		}
		upsert, err := pipeline.LoadFixtures(ctx, normalizer, a.events)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d fixture events\n", upsert.Inserted)

		result, err := runPipeline(ctx, a)
		if err != nil {
			return err
		}
		if err := writeDataset(result); err != nil {
			return err
		}

		scorer, err := a.scorer()
		if err != nil {
			return err
		}
		pairs, err := cfg.PairList()
		if err != nil {
			return err
		}
		report := reporting.NewGenerator(a.events, scorer).Build(result.Scored, result.Table)
		report.RunID = result.RunID
		report.Signals = reporting.SummarizeSignals(pairs, result.Projected, result.Filtered, result.FilterStats)

		paths, err := reporting.WriteReport(outputDir, report)
		if err != nil {
			return err
		}
		printPaths(paths)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// newMemoryApp builds an app backed only by in-memory stores.
func newMemoryApp(cfg *config.PipelineConfig) *app {
	registry := prometheus.NewRegistry()
	return &app{
		cfg:         cfg,
		registry:    registry,
		metrics:     observability.NewMetrics(env.MetricsNamespace, registry),
		events:      memory.NewEventStore(),
		checkpoints: memory.NewCheckpointStore(),
		scored:      memory.NewScoredEventStore(),
		signals:     memory.NewPairSignalStore(),
		stats:       memory.NewTitleStatsStore(),
		inMemory:    true,
	}
}
