// Package metrics exposes Prometheus instrumentation for the aggregation layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups     *prometheus.CounterVec
	cacheWrites      *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	outcomes         *prometheus.CounterVec
	eventsReturned   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gigscout",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by tier and result",
	}, []string{"tier", "result"})
	m.cacheWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gigscout",
		Name:      "cache_writes_total",
		Help:      "Cache writes by tier and status",
	}, []string{"tier", "status"})
	m.providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gigscout",
		Name:      "provider_requests_total",
		Help:      "Number of provider requests by outcome",
	}, []string{"provider", "outcome"})
	m.providerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gigscout",
		Name:      "provider_request_duration_seconds",
		Help:      "Time spent in provider calls",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"provider"})
	m.outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gigscout",
		Name:      "aggregation_outcomes_total",
		Help:      "Terminal outcome of aggregation requests",
	}, []string{"operation", "outcome"})
	m.eventsReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gigscout",
		Name:      "events_returned",
		Help:      "Number of events returned per aggregation",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.registry.MustRegister(
		m.cacheLookups,
		m.cacheWrites,
		m.providerRequests,
		m.providerDuration,
		m.outcomes,
		m.eventsReturned,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) CacheLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) CacheWrite(tier string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.cacheWrites.WithLabelValues(tier, status).Inc()
}

// ProviderRequest records one adapter call. outcome is "ok" or an error kind.
func (m *Metrics) ProviderRequest(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, outcome).Inc()
	m.providerDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) Outcome(operation, outcome string, events int) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(operation, outcome).Inc()
	m.eventsReturned.Observe(float64(events))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
