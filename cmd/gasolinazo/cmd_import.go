package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/observability"
)

func locationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Import the location catalog only",
		Long:  "Fetches the CRE municipality catalog and snapshots it for today. Useful for testing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			metrics := observability.NewMetrics()
			p, err := buildPipeline(logger, metrics)
			if err != nil {
				return err
			}
			defer p.Close()

			catalog, err := p.locations.Import(context.Background())
			if err != nil {
				return err
			}

			logger.Info().Int("locations", len(catalog)).Msg("locations import completed")
			return nil
		},
	}
}

func pricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "Import the day's prices without exporting",
		Long: `Resolves the location catalog (importing it when no snapshot exists for
today), fetches current prices for every location and snapshots the
normalized records. Nothing is posted to the Insights API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			metrics := observability.NewMetrics()
			p, err := buildPipeline(logger, metrics)
			if err != nil {
				return err
			}
			defer p.Close()

			records, totals, err := p.prices.Import(context.Background())
			if err != nil {
				return err
			}

			logger.Info().
				Int("records", len(records)).
				Int("locations_processed", totals.LocationsProcessed).
				Int("locations_missing_data", totals.LocationsMissingData).
				Int("stations_processed", totals.StationsProcessed).
				Msg("price import completed")
			return nil
		},
	}
}
