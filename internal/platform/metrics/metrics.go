package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ContactsCreated    prometheus.Counter
	ContactsRetrieved  prometheus.Counter
	AuthFailures       prometheus.Counter
	ValidationFailures prometheus.Counter
	ConflictRejections prometheus.Counter
	StorageErrors      prometheus.Counter
	ContactCacheHits   prometheus.Counter
	ContactCacheMisses prometheus.Counter
	EndpointLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ContactsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_created_total",
			Help: "Total number of contacts successfully created",
		}),
		ContactsRetrieved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_list_requests_total",
			Help: "Total number of contact list retrievals",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_auth_failures_total",
			Help: "Total number of authentication failures",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_validation_failures_total",
			Help: "Total number of contact payloads rejected by validation",
		}),
		ConflictRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_conflict_rejections_total",
			Help: "Total number of contacts rejected as duplicate or self-referential",
		}),
		StorageErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_storage_errors_total",
			Help: "Total number of contact store failures",
		}),
		ContactCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_cache_hits_total",
			Help: "Total number of contact list reads served from cache",
		}),
		ContactCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contacts_cache_misses_total",
			Help: "Total number of contact list reads that missed the cache",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contacts_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) IncrementContactsCreated() {
	m.ContactsCreated.Inc()
}

func (m *Metrics) IncrementContactsRetrieved() {
	m.ContactsRetrieved.Inc()
}

func (m *Metrics) IncrementAuthFailures() {
	m.AuthFailures.Inc()
}

func (m *Metrics) IncrementValidationFailures() {
	m.ValidationFailures.Inc()
}

func (m *Metrics) IncrementConflictRejections() {
	m.ConflictRejections.Inc()
}

func (m *Metrics) IncrementStorageErrors() {
	m.StorageErrors.Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
