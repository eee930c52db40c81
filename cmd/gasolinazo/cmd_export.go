package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/observability"
)

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Run the full pipeline and export the day's prices",
		Long: `Resolves the day's price records (importing the location catalog and the
prices when no snapshot exists for today) and posts them to the Insights API
in fixed-size batches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if err := cfg.Validate(); err != nil {
				return err
			}

			metrics := observability.NewMetrics()
			p, err := buildPipeline(logger, metrics)
			if err != nil {
				return err
			}
			defer p.Close()

			totals, err := p.exporter.Export(context.Background())
			if err != nil {
				return err
			}

			logger.Info().
				Int("inserted", totals.Inserted).
				Int("not_inserted", totals.NotInserted).
				Msg("export completed")
			return nil
		},
	}
}
