package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fx-calendar-lab/internal/orchestrator"
	"fx-calendar-lab/internal/reporting"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the corpus, project pair signals and write the dataset",
	Long: `Fit per-title statistics, score every event, project directional
surprises onto the configured pairs and filter them. Run outputs are stored
under a new run id and the golden dataset, title stats and signal CSVs are
written to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.prepare(cmd.Context()); err != nil {
			return err
		}
		result, err := runPipeline(cmd.Context(), a)
		if err != nil {
			return err
		}
		return writeDataset(result)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runPipeline(ctx context.Context, a *app) (*orchestrator.RunResult, error) {
	orch, err := a.orchestrator()
	if err != nil {
		return nil, err
	}
	result, err := orch.Run(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Println("=== Pipeline ===")
	fmt.Printf("  Run: %s\n", result.RunID)
	fmt.Printf("  Events: %s  Title groups: %d\n", humanize.Comma(int64(result.Events)), result.Table.Len())
	fmt.Printf("  Projected: %s  Filtered: %s\n",
		humanize.Comma(int64(len(result.Projected))), humanize.Comma(int64(len(result.Filtered))))
	return result, nil
}

func writeDataset(result *orchestrator.RunResult) error {
	paths, err := reporting.WriteDataset(outputDir, reporting.Dataset{
		Scored:    result.Scored,
		Table:     result.Table,
		Projected: result.Projected,
		Filtered:  result.Filtered,
	})
	if err != nil {
		return err
	}
	printPaths(paths)
	return nil
}

func printPaths(paths []string) {
	for _, p := range paths {
		fmt.Printf("  wrote %s\n", p)
	}
}
