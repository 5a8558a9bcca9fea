package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fx-calendar-lab/internal/verification"
)

var verifyRunID string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute a stored run and report divergences",
	Long: `Load the scored corpus stored under --run, refit and rescore it, re-project
and re-filter the pair signals with the current config and compare every stored
row with its recomputation. Needs CLICKHOUSE_DSN, since in-memory run outputs do
not outlive the process that produced them.`,
	Example: `  calendarlab verify --run 3f1c2a9e-... --config pipeline.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if env.ClickhouseDSN == "" {
			return fmt.Errorf("CLICKHOUSE_DSN is not set; stored runs are only available in clickhouse")
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		scorer, err := a.scorer()
		if err != nil {
			return err
		}
		pairs, err := a.cfg.PairList()
		if err != nil {
			return err
		}
		filter, err := a.cfg.FilterConfig()
		if err != nil {
			return err
		}
		v, err := verification.NewRunVerifier(verification.Options{
			ScoredStore: a.scored,
			SignalStore: a.signals,
			Scorer:      scorer,
			Pairs:       pairs,
			Filter:      &filter,
		})
		if err != nil {
			return err
		}

		report, err := v.Verify(cmd.Context(), verifyRunID)
		if err != nil {
			return err
		}
		fmt.Printf("=== Verify %s ===\n", report.RunID)
		fmt.Printf("  Events:  %d/%d match\n", report.MatchedEvents, report.Events)
		fmt.Printf("  Signals: %d/%d match\n", report.MatchedSignals, report.Signals)
		for _, res := range append(report.DivergentEvents, report.DivergentSignals...) {
			for _, d := range res.Divergences {
				fmt.Printf("  ! %s %s: stored %v, recomputed %v\n", res.Key, d.Field, d.Expected, d.Actual)
			}
		}
		if !report.OK() {
			return fmt.Errorf("run %s diverges from its recomputation", report.RunID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyRunID, "run", "", "Run id to verify")
	_ = verifyCmd.MarkFlagRequired("run")
}
