package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache names used as the "cache" label.
const (
	CacheLunchoData  = "luncho_data"
	CacheAllData     = "all_luncho_data"
	CacheCountries   = "countries"
	CacheCountryCode = "country_code"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	FetchesTotal          *prometheus.CounterVec
	FetchDuration         *prometheus.HistogramVec
	CoalescedWaitersTotal *prometheus.CounterVec

	ConversionRequestsTotal *prometheus.CounterVec
}

// NewMetrics registers every collector on reg. Pass prometheus.DefaultRegisterer
// in main and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "luncho_cache_hits_total",
				Help: "Total number of requests served from cache",
			},
			[]string{"cache"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "luncho_cache_misses_total",
				Help: "Total number of requests that needed a remote fetch",
			},
			[]string{"cache"},
		),

		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "luncho_fetches_total",
				Help: "Total number of remote fetches by operation and result",
			},
			[]string{"operation", "result"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "luncho_fetch_duration_seconds",
				Help:    "Remote fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		CoalescedWaitersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "luncho_coalesced_waiters_total",
				Help: "Total number of callers that shared an in-flight fetch",
			},
			[]string{"operation"},
		),

		ConversionRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "luncho_conversion_requests_total",
				Help: "Total number of conversions by direction",
			},
			[]string{"direction"},
		),
	}
}
