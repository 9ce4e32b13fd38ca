package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds the Prometheus collectors of the insight service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	TenantFetches       *prometheus.CounterVec
	TenantFetchDuration *prometheus.HistogramVec
	AggregationDuration *prometheus.HistogramVec
	AggregatedTenants   *prometheus.HistogramVec
	CacheLookups        *prometheus.CounterVec
	BackendRequests     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TenantFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_tenant_fetches_total",
			Help: "Per-tenant collection fetches, labeled by collection and outcome",
		}, []string{"collection", "outcome"}),
		TenantFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insight_tenant_fetch_duration_seconds",
			Help:    "Duration of a single per-tenant collection fetch",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"collection"}),
		AggregationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insight_aggregation_duration_seconds",
			Help:    "Duration of a full aggregation run including fan-out",
			Buckets: prometheus.DefBuckets,
		}, []string{"scope"}),
		AggregatedTenants: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insight_aggregated_tenants",
			Help:    "Size of the tenant universe per aggregation run",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"scope"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_cache_lookups_total",
			Help: "Result cache lookups, labeled by scope and result",
		}, []string{"scope", "result"}),
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_backend_requests_total",
			Help: "Requests sent to the BUMDes REST backend, labeled by endpoint and status class",
		}, []string{"endpoint", "status"}),
	}
}

// ObserveAggregation records one aggregation run.
func (m *Metrics) ObserveAggregation(scope string, tenants int, start time.Time) {
	if m == nil {
		return
	}
	m.AggregationDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds())
	m.AggregatedTenants.WithLabelValues(scope).Observe(float64(tenants))
}

// IncrementCacheLookup records a cache hit, miss or error.
func (m *Metrics) IncrementCacheLookup(scope, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(scope, result).Inc()
}

// IncrementBackendRequest records one backend round trip.
func (m *Metrics) IncrementBackendRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(endpoint, status).Inc()
}

// FetchObserver returns an observer for per-tenant fetches of collection.
func (m *Metrics) FetchObserver(collection string) *FetchObserver {
	return &FetchObserver{metrics: m, collection: collection}
}

// FetchObserver reports per-tenant fetches of one collection.
type FetchObserver struct {
	metrics    *Metrics
	collection string
}

func (o *FetchObserver) ObserveTenantFetch(outcome string, elapsed time.Duration) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.TenantFetches.WithLabelValues(o.collection, outcome).Inc()
	o.metrics.TenantFetchDuration.WithLabelValues(o.collection).Observe(elapsed.Seconds())
}
