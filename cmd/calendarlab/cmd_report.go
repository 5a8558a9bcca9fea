package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fx-calendar-lab/internal/reporting"
)

var reportSignals bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the calendar quality report",
	Long: `Score the stored corpus and write the quality CSVs and the markdown
report: overall coverage, breakdowns by year, currency and impact, weekly
time coverage, surprise coverage by title and the data sufficiency checks.

With --signals the full pipeline runs as well, its run is stored and the report
gains a pair-signal section alongside the dataset files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.prepare(ctx); err != nil {
			return err
		}
		scorer, err := a.scorer()
		if err != nil {
			return err
		}
		gen := reporting.NewGenerator(a.events, scorer)

		var report *reporting.QualityReport
		if reportSignals {
			result, err := runPipeline(ctx, a)
			if err != nil {
				return err
			}
			report = gen.Build(result.Scored, result.Table)
			report.RunID = result.RunID
			pairs, err := a.cfg.PairList()
			if err != nil {
				return err
			}
			report.Signals = reporting.SummarizeSignals(pairs, result.Projected, result.Filtered, result.FilterStats)
			if err := writeDataset(result); err != nil {
				return err
			}
		} else {
			report, _, err = gen.Generate(ctx)
			if err != nil {
				return err
			}
		}

		paths, err := reporting.WriteReport(outputDir, report)
		if err != nil {
			return err
		}
		printPaths(paths)

		status := "PASS"
		if !report.DataQuality.AllChecksPassed {
			status = "FAIL"
		}
		fmt.Printf("  Data sufficiency: %s\n", status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportSignals, "signals", false, "Also run the pipeline and report pair signals")
}
