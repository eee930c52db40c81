// Package observability provides Prometheus metrics for the fuel price
// pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the pipeline.
type Metrics struct {
	APIRequestsTotal *prometheus.CounterVec // labels: endpoint={catalog,prices}, status={success,error}

	LocationsProcessedTotal   prometheus.Counter
	LocationsMissingDataTotal prometheus.Counter
	StationsProcessedTotal    prometheus.Counter

	ExportEventsTotal  *prometheus.CounterVec // labels: status={inserted,rejected}
	ExportBatchesTotal *prometheus.CounterVec // labels: status={inserted,rejected}

	LastRunTimestamp prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasolinazo",
			Name:      "api_requests_total",
			Help:      "Upstream API requests by endpoint and status.",
		}, []string{"endpoint", "status"}),
		LocationsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gasolinazo",
			Name:      "locations_processed_total",
			Help:      "Locations that yielded at least one price observation.",
		}),
		LocationsMissingDataTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gasolinazo",
			Name:      "locations_missing_data_total",
			Help:      "Locations whose price response was empty.",
		}),
		StationsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gasolinazo",
			Name:      "stations_processed_total",
			Help:      "Price observations normalized into records.",
		}),
		ExportEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasolinazo",
			Name:      "export_events_total",
			Help:      "Exported events by batch outcome.",
		}, []string{"status"}),
		ExportBatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasolinazo",
			Name:      "export_batches_total",
			Help:      "Export batches by outcome.",
		}, []string{"status"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gasolinazo",
			Name:      "last_run_timestamp",
			Help:      "Unix time of the last completed export run.",
		}),
	}
}

// NewMetrics creates all pipeline metrics and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.APIRequestsTotal,
		m.LocationsProcessedTotal,
		m.LocationsMissingDataTotal,
		m.StationsProcessedTotal,
		m.ExportEventsTotal,
		m.ExportBatchesTotal,
		m.LastRunTimestamp,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can construct
// them repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
