// Package exporter posts normalized price records to the Insights ingestion
// API in fixed-size batches.
package exporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/api/insights"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/importer"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/models"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/observability"
)

// Totals counts exported events by outcome for one run. A batch is counted in
// full on either side; there is no partial-batch success.
type Totals struct {
	Inserted    int
	NotInserted int
}

// LastRun describes the most recent completed export.
type LastRun struct {
	FinishedAt time.Time
	Batches    int
	Totals     Totals
}

// Exporter resolves the day's price records and exports them batch by batch.
type Exporter struct {
	client  *insights.Client
	prices  *importer.Prices
	clock   clockwork.Clock
	delay   time.Duration
	perPost int
	metrics *observability.Metrics
	logger  zerolog.Logger

	mu      sync.Mutex
	lastRun *LastRun
}

// New creates the export stage.
func New(client *insights.Client, prices *importer.Prices, clock clockwork.Clock,
	delay time.Duration, perPost int, metrics *observability.Metrics, logger zerolog.Logger) *Exporter {
	return &Exporter{
		client:  client,
		prices:  prices,
		clock:   clock,
		delay:   delay,
		perPost: perPost,
		metrics: metrics,
		logger:  logger.With().Str("component", "exporter").Logger(),
	}
}

// Export resolves the price record list (triggering the import stages when no
// snapshot exists for today) and posts it in order-preserving batches. A
// rejected batch is counted and the run continues; transport failures abort
// the run.
func (e *Exporter) Export(ctx context.Context) (Totals, error) {
	var totals Totals

	records, err := e.prices.Resolve(ctx)
	if err != nil {
		return totals, err
	}

	batches := Batch(records, e.perPost)
	e.logger.Info().
		Int("records", len(records)).
		Int("batches", len(batches)).
		Msg("exporting the prices in batches")

	for _, batch := range batches {
		events := make([]insights.Event, 0, len(batch))
		for _, record := range batch {
			events = append(events, newEvent(record))
		}

		ok, err := e.client.PostEvents(ctx, events)
		if err != nil {
			return totals, fmt.Errorf("posting events: %w", err)
		}
		if ok {
			totals.Inserted += len(events)
			e.metrics.ExportEventsTotal.WithLabelValues("inserted").Add(float64(len(events)))
			e.metrics.ExportBatchesTotal.WithLabelValues("inserted").Inc()
		} else {
			totals.NotInserted += len(events)
			e.metrics.ExportEventsTotal.WithLabelValues("rejected").Add(float64(len(events)))
			e.metrics.ExportBatchesTotal.WithLabelValues("rejected").Inc()
		}

		e.clock.Sleep(e.delay)
	}

	e.logger.Info().
		Int("inserted", totals.Inserted).
		Int("not_inserted", totals.NotInserted).
		Msg("export finished")

	finishedAt := e.clock.Now()
	e.metrics.LastRunTimestamp.Set(float64(finishedAt.Unix()))
	e.mu.Lock()
	e.lastRun = &LastRun{FinishedAt: finishedAt, Batches: len(batches), Totals: totals}
	e.mu.Unlock()

	return totals, nil
}

// LastRun returns the most recent completed run, or nil before the first one.
func (e *Exporter) LastRun() *LastRun {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRun
}

func newEvent(record models.PriceRecord) insights.Event {
	return insights.Event{
		EventType: insights.EventType,
		Location:  record.Location.Name,
		State:     record.Location.State,
		Brand:     record.Brand,
		Station:   record.Station,
		Type:      string(record.Type),
		Product:   record.Product,
		Price:     record.Price,
		AppliedAt: record.AppliedAt,
	}
}
