// Package main provides the entry point for the gasolinazo CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/api/cre"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/api/insights"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/config"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/database"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/exporter"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/importer"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/observability"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/snapshot"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"
	// BuildDate is set at build time.
	BuildDate = "unknown"
)

var cfg *config.Config

func main() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	rootCmd := &cobra.Command{
		Use:   "gasolinazo",
		Short: "Gasolinazo - Mexican fuel prices as New Relic Insights events",
		Long: `Gasolinazo collects fuel prices published by the CRE (Comisión Reguladora
de Energía) public APIs, normalizes them into typed records and republishes
them as FuelPriceSample events to the New Relic Insights ingestion API.

The pipeline runs in three stages (location catalog import, price import,
batch event export) with a date-rotated snapshot cache between stages, so
re-running any stage on the same day reuses cached data.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for date-rotated snapshots")
	rootCmd.PersistentFlags().StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "Optional Postgres DSN for the price archive")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console)")
	rootCmd.PersistentFlags().DurationVar(&cfg.RequestDelay, "request-delay", cfg.RequestDelay, "Delay between price requests")

	// Add subcommands
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(pricesCmd())
	rootCmd.AddCommand(locationsCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() zerolog.Logger {
	var logger zerolog.Logger

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	return logger
}

// pipeline bundles the wired stages for one process.
type pipeline struct {
	locations *importer.Locations
	prices    *importer.Prices
	exporter  *exporter.Exporter
	archive   *database.DB
}

// buildPipeline wires the snapshot store, API clients and stages from the
// loaded configuration.
func buildPipeline(logger zerolog.Logger, metrics *observability.Metrics) (*pipeline, error) {
	clock := clockwork.NewRealClock()
	store := snapshot.New(cfg.DataDir, clock, logger)
	creClient := cre.New(cfg.CatalogURL, cfg.PricesURL, cfg.UserAgent, clock, logger)

	var archive *database.DB
	if cfg.PostgresDSN != "" {
		db, err := database.New(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to archive database: %w", err)
		}
		if err := db.EnsureSchema(context.Background()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("preparing archive schema: %w", err)
		}
		archive = db
	}

	locations := importer.NewLocations(creClient, store, metrics, logger)
	prices := importer.NewPrices(creClient, store, locations, archive, clock, cfg.RequestDelay, metrics, logger)

	insightsClient := insights.New(cfg.InsightsURL, cfg.NRAccountID, cfg.NRInsertKey, logger)
	exp := exporter.New(insightsClient, prices, clock, cfg.PostDelay, cfg.EventsPerPost, metrics, logger)

	return &pipeline{
		locations: locations,
		prices:    prices,
		exporter:  exp,
		archive:   archive,
	}, nil
}

// Close releases the pipeline's resources.
func (p *pipeline) Close() {
	if p.archive != nil {
		_ = p.archive.Close()
	}
}
