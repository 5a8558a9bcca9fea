package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fx-calendar-lab/internal/ingestion"
)

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Normalize the configured inputs into the event store",
	Long: `Read every input listed in the config, normalize each row and upsert the
events. Inputs whose content is unchanged since the last checkpoint are skipped
unless --force is given.`,
	Example: `  calendarlab ingest --config pipeline.yaml
  calendarlab ingest --config pipeline.yaml --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(a.cfg.Inputs) == 0 {
			return fmt.Errorf("config lists no inputs")
		}
		res, err := a.ingest(cmd.Context(), ingestForce)
		if res != nil {
			printIngest(res)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "Ingest inputs even when their checkpoint matches")
}

func printIngest(res *ingestion.Result) {
	fmt.Println("=== Ingest ===")
	for _, in := range res.Inputs {
		status := "ingested"
		if in.Skipped {
			status = "unchanged, skipped"
		}
		fmt.Printf("  %-8s %s: %s rows (%s)\n", in.Source, in.Location, humanize.Comma(int64(in.Rows)), status)
	}
	fmt.Printf("  Inserted: %s  Updated: %s  Unchanged: %s  Field issues: %d\n",
		humanize.Comma(int64(res.Upsert.Inserted)),
		humanize.Comma(int64(res.Upsert.Updated)),
		humanize.Comma(int64(res.Upsert.Unchanged)),
		len(res.Issues))
	for i, issue := range res.Issues {
		if i == 10 {
			fmt.Printf("  ... %d more issues\n", len(res.Issues)-10)
			break
		}
		fmt.Printf("  ! %v\n", issue)
	}
}
