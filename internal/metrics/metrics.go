// Package metrics exposes Prometheus collectors for catalog providers,
// persistence and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names
const (
	LabelProvider  = "provider"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelBackend   = "backend"
	LabelEvent     = "event"
)

// Outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
)

var providerLatencyBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// Catalog provider metrics
var (
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_provider_requests_total",
			Help: "Total number of requests made to external card catalogs",
		},
		[]string{LabelProvider, LabelOperation, LabelOutcome},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_provider_request_duration_seconds",
			Help:    "External card catalog request latency in seconds",
			Buckets: providerLatencyBuckets,
		},
		[]string{LabelProvider, LabelOperation},
	)

	ProviderItemsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_provider_items_skipped_total",
			Help: "Total number of malformed catalog items skipped during bulk decode",
		},
		[]string{LabelProvider, LabelOperation},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Total number of reconciled set list cache lookups",
		},
		[]string{LabelOutcome},
	)
)

// Persistence metrics
var (
	StoreWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_store_writes_total",
			Help: "Total number of inventory store mutations",
		},
		[]string{LabelOperation, LabelOutcome},
	)

	SnapshotsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_snapshots_published_total",
			Help: "Total number of collection snapshots published to subscribers",
		},
		[]string{LabelEvent},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// ObserveProvider records one provider request.
func ObserveProvider(provider, operation, outcome string, started time.Time) {
	ProviderRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
}

// ObserveWrite records one store mutation.
func ObserveWrite(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	StoreWritesTotal.WithLabelValues(operation, outcome).Inc()
}
