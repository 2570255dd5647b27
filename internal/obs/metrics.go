package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SearchesTotal  *prometheus.CounterVec
	CacheHitsTotal prometheus.Counter

	ProviderErrors  *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	SkippedRecords  *prometheus.CounterVec

	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	Registry            *prometheus.Registry
}

// Create Prometheus collectors and register them
func NewMetrics(p *prometheus.Registry) *Metrics {
	m := &Metrics{
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_searches_total",
			Help: "Searches served, by search type",
		}, []string{"type"},
		),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "travel_cache_hits_total",
			Help: "Number of cache hits for search results",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Errors returned by each provider",
		}, []string{"provider"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_latency_seconds",
				Help:    "Latency of outbound provider calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"provider"},
		),
		SkippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_skipped_records_total",
			Help: "Provider records dropped during normalization",
		}, []string{"type"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		Registry: p,
	}

	// Register metrics with Prometheus
	p.MustRegister(
		m.SearchesTotal,
		m.CacheHitsTotal,
		m.ProviderErrors,
		m.ProviderLatency,
		m.SkippedRecords,
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
	)

	return m
}

func (m *Metrics) IncSearches(searchType string) { m.SearchesTotal.WithLabelValues(searchType).Inc() }
func (m *Metrics) IncCacheHits()                 { m.CacheHitsTotal.Inc() }

func (m *Metrics) IncProviderFailure(provider string) {
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) ObserveProviderLatency(provider string, seconds float64) {
	m.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) AddSkippedRecords(searchType string, n int) {
	if n > 0 {
		m.SkippedRecords.WithLabelValues(searchType).Add(float64(n))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
