package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	httpserver "github.com/DataNerdsMX/fuel-prices-mx/internal/http"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/observability"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/scheduler"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the continuous collector service",
		Long: `Starts the fuel price collector with an internal scheduler that runs the
full pipeline daily at the specified hour, and an HTTP server exposing
/metrics, /status and /health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("httpAddr", cfg.HTTPAddr).
				Int("runHour", cfg.RunHour).
				Msg("starting fuel price collector")

			metrics := observability.NewMetrics()
			p, err := buildPipeline(logger, metrics)
			if err != nil {
				return err
			}
			defer p.Close()

			// Create scheduler
			sched := scheduler.New(p.exporter, cfg.RunHour, clockwork.NewRealClock(), logger)

			// Create HTTP server
			var archive httpserver.Archive
			if p.archive != nil {
				archive = p.archive
			}
			server := httpserver.NewServer(cfg.HTTPAddr, p.exporter, sched, archive, logger)

			// Setup signal handling
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start HTTP server in goroutine
			go func() {
				if err := server.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP server error")
					cancel()
				}
			}()

			// Start scheduler in goroutine
			go func() {
				if err := sched.Start(ctx); err != nil && err != context.Canceled {
					logger.Error().Err(err).Msg("scheduler error")
					cancel()
				}
			}()

			// Wait for signal
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			case <-ctx.Done():
			}

			// Graceful shutdown
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.RunHour, "run-hour", cfg.RunHour, "Hour of day (0-23) to run the pipeline")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address for /metrics, /status")

	return cmd
}
