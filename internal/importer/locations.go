// Package importer implements the catalog and price import stages of the
// pipeline. Each stage snapshots its output so downstream stages can resolve
// it from cache for the rest of the day.
package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/api/cre"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/models"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/observability"
	"github.com/DataNerdsMX/fuel-prices-mx/internal/snapshot"
)

// Snapshot names used by the pipeline stages.
const (
	SnapshotLocations = "locations"
	SnapshotPrices    = "prices"
)

// Locations imports the CRE municipality catalog.
type Locations struct {
	client  *cre.Client
	store   *snapshot.Store
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewLocations creates the catalog import stage.
func NewLocations(client *cre.Client, store *snapshot.Store, metrics *observability.Metrics, logger zerolog.Logger) *Locations {
	return &Locations{
		client:  client,
		store:   store,
		metrics: metrics,
		logger:  logger.With().Str("component", "locations-importer").Logger(),
	}
}

// Import fetches the full catalog, keys every entry by its zero-padded
// composite key and snapshots the mapping under "locations".
func (l *Locations) Import(ctx context.Context) (models.Catalog, error) {
	l.logger.Info().Msg("getting the locations catalog")

	records, err := l.client.FetchLocations(ctx)
	if err != nil {
		l.metrics.APIRequestsTotal.WithLabelValues("catalog", "error").Inc()
		return nil, fmt.Errorf("fetching locations catalog: %w", err)
	}
	l.metrics.APIRequestsTotal.WithLabelValues("catalog", "success").Inc()

	catalog := make(models.Catalog, len(records))
	for _, r := range records {
		key := r.Key()
		catalog[key] = models.Location{
			Key:   key,
			State: r.EntidadFederativa.Nombre,
			Name:  r.Nombre,
		}
	}

	if err := l.store.Save(SnapshotLocations, catalog); err != nil {
		return nil, err
	}

	l.logger.Info().Int("locations", len(catalog)).Msg("locations catalog imported")
	return catalog, nil
}

// Resolve returns today's cached catalog, importing it when absent.
func (l *Locations) Resolve(ctx context.Context) (models.Catalog, error) {
	return snapshot.Resolve(l.store, SnapshotLocations, func() (models.Catalog, error) {
		return l.Import(ctx)
	})
}
