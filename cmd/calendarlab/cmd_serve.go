package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fx-calendar-lab/internal/feed"
	"fx-calendar-lab/internal/observability"
)

var (
	serveAddr     string
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve filtered pair signals over HTTP and WebSocket",
	Long: `Run the pipeline on a fixed interval and publish each run's filtered
signals to the feed. Routes:

  GET /healthz      liveness
  GET /metrics      Prometheus metrics
  GET /v1/signals   latest batch as JSON (?currency=USD&pair=EURUSD)
  GET /v1/stream    WebSocket: snapshot on connect, then one batch per run

Configured inputs are re-ingested before every run; unchanged files are skipped
by their checkpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := serveAddr
		if addr == "" {
			addr = env.FeedAddr
		}
		interval := serveInterval
		if interval <= 0 {
			interval = env.FeedInterval
		}

		hub := feed.NewHub(a.metrics)
		defer hub.Close()

		errCh := make(chan error, 1)
		go func() {
			errCh <- feed.ListenAndServe(ctx, addr, feed.NewRouter(hub, observability.HandlerFor(a.registry)))
		}()

		publish := func() {
			if err := refresh(ctx, a, hub); err != nil && ctx.Err() == nil {
				log.Error().Str("component", "cli").Err(err).Msg("pipeline refresh failed")
			}
		}
		publish()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return <-errCh
			case err := <-errCh:
				return err
			case <-ticker.C:
				publish()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default FEED_ADDR)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "Pipeline interval (default FEED_INTERVAL)")
}

func refresh(ctx context.Context, a *app, hub *feed.Hub) error {
	if len(a.cfg.Inputs) > 0 {
		if _, err := a.ingest(ctx, false); err != nil {
			return err
		}
	}
	orch, err := a.orchestrator()
	if err != nil {
		return err
	}
	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	hub.Publish(result.RunID, result.Filtered)
	return nil
}
