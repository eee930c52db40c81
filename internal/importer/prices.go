package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/api/cre"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/database"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/models"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/observability"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/snapshot"
)

// appliedAtLayout is the application-date format of the daily report. The
// value carries no timezone and is treated as local time.
const appliedAtLayout = "2006-01-02T15:04:05"

// Prices imports current price observations for every cataloged location.
type Prices struct {
	client  *cre.Client
	store   *snapshot.Store
	catalog *Locations
	archive *database.DB // nil when no archive is configured
	clock   clockwork.Clock
	delay   time.Duration
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewPrices creates the price import stage. archive may be nil.
func NewPrices(client *cre.Client, store *snapshot.Store, catalog *Locations, archive *database.DB,
	clock clockwork.Clock, delay time.Duration, metrics *observability.Metrics, logger zerolog.Logger) *Prices {
	return &Prices{
		client:  client,
		store:   store,
		catalog: catalog,
		archive: archive,
		clock:   clock,
		delay:   delay,
		metrics: metrics,
		logger:  logger.With().Str("component", "prices-importer").Logger(),
	}
}

// Import resolves the location catalog, fetches current prices for every
// location strictly in sequence and snapshots the normalized record list
// under "prices". A location with no observations is counted, not an error.
func (p *Prices) Import(ctx context.Context) ([]models.PriceRecord, models.RunTotals, error) {
	var totals models.RunTotals

	catalog, err := p.catalog.Resolve(ctx)
	if err != nil {
		return nil, totals, err
	}

	p.logger.Info().Int("locations", len(catalog)).Msg("getting the prices for each location")

	var records []models.PriceRecord
	for _, location := range catalog {
		observations, err := p.client.FetchPrices(ctx, location.Key)
		if err != nil {
			p.metrics.APIRequestsTotal.WithLabelValues("prices", "error").Inc()
			return nil, totals, fmt.Errorf("fetching prices for %s: %w", location.Key, err)
		}
		p.metrics.APIRequestsTotal.WithLabelValues("prices", "success").Inc()

		if len(observations) == 0 {
			p.logger.Warn().
				Stringer("key", location.Key).
				Str("location", location.Name).
				Msg("no data for location")
			totals.LocationsMissingData++
			p.metrics.LocationsMissingDataTotal.Inc()
			p.clock.Sleep(p.delay)
			continue
		}

		for _, o := range observations {
			record, err := p.buildRecord(catalog, o)
			if err != nil {
				return nil, totals, err
			}
			totals.StationsProcessed++
			p.metrics.StationsProcessedTotal.Inc()
			records = append(records, record)
		}
		totals.LocationsProcessed++
		p.metrics.LocationsProcessedTotal.Inc()

		p.clock.Sleep(p.delay)
	}

	if err := p.store.Save(SnapshotPrices, records); err != nil {
		return nil, totals, err
	}

	p.logger.Info().
		Int("locations_processed", totals.LocationsProcessed).
		Int("locations_missing_data", totals.LocationsMissingData).
		Int("stations_processed", totals.StationsProcessed).
		Msg("price import finished")

	p.archiveRecords(ctx, records)

	return records, totals, nil
}

// Resolve returns today's cached record list, importing it when absent.
func (p *Prices) Resolve(ctx context.Context) ([]models.PriceRecord, error) {
	return snapshot.Resolve(p.store, SnapshotPrices, func() ([]models.PriceRecord, error) {
		records, _, err := p.Import(ctx)
		return records, err
	})
}

// buildRecord normalizes one observation. The owning location is looked up by
// the observation's own identifiers rather than the queried location: the
// report occasionally returns rows for a different municipality, and an
// unknown key must fail loudly instead of being silently attributed.
func (p *Prices) buildRecord(catalog models.Catalog, o cre.PriceObservation) (models.PriceRecord, error) {
	key := o.Key()
	location, ok := catalog[key]
	if !ok {
		return models.PriceRecord{}, fmt.Errorf("observation for station %q references unknown location %s", o.Nombre, key)
	}

	appliedAt, err := time.ParseInLocation(appliedAtLayout, o.FechaAplicacion, time.Local)
	if err != nil {
		return models.PriceRecord{}, fmt.Errorf("parsing application date %q: %w", o.FechaAplicacion, err)
	}

	fuelType := models.FuelTypeDiesel
	if o.Producto == "Gasolinas" {
		fuelType = models.FuelTypeGasoline
	}

	product := o.SubProducto
	if fields := strings.Fields(o.SubProducto); len(fields) > 0 {
		product = fields[0]
	}

	return models.PriceRecord{
		Location:  location,
		Brand:     o.Marca,
		Station:   o.Nombre,
		Type:      fuelType,
		Product:   product,
		Price:     o.PrecioVigente,
		AppliedAt: appliedAt.Unix(),
	}, nil
}

// archiveRecords writes the run's records to the Postgres archive when one is
// configured. Archive failures never abort the run.
func (p *Prices) archiveRecords(ctx context.Context, records []models.PriceRecord) {
	if p.archive == nil || len(records) == 0 {
		return
	}
	inserted, err := p.archive.InsertPrices(ctx, records)
	if err != nil {
		p.logger.Error().Err(err).Int("inserted", inserted).Msg("failed to archive price records")
		return
	}
	p.logger.Info().Int("inserted", inserted).Msg("price records archived")
}
