// Command calendarlab ingests economic calendars, scores directional
// surprises and projects them onto FX pair signals.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fx-calendar-lab/internal/config"
	"fx-calendar-lab/internal/logging"
)

var (
	configPath string
	outputDir  string
	verbose    bool

	env *config.EnvConfig
)

var rootCmd = &cobra.Command{
	Use:   "calendarlab",
	Short: "Economic calendar normalization and pair-signal pipeline",
	Long: `calendarlab normalizes economic calendar exports (CSV, ForexFactory HTML
and JSON, TradingEconomics JSON) into one canonical event table, scores
directional surprises per title group and projects them onto FX pairs.

Connection settings come from the environment (POSTGRES_DSN, CLICKHOUSE_DSN,
LOG_LEVEL, FEED_ADDR, ...); a .env file in the working directory is read first.
Without POSTGRES_DSN the event store lives in memory and every command ingests
the configured inputs before running.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if env, err = config.LoadEnv(); err != nil {
			return err
		}
		level := env.LogLevel
		if verbose {
			level = "debug"
		}
		return logging.Setup(level, env.LogPretty)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Pipeline YAML config (empty: defaults)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "out", "Directory for generated files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging and per-phase progress")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
