package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Feed pipeline metrics
	FeedRequestsTotal    prometheus.CounterVec
	FeedGenerationTime   prometheus.HistogramVec
	FeedCandidatesScored prometheus.HistogramVec
	FeedCandidatesServed prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			FeedRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_requests_total",
					Help: "Total number of feed page requests by policy",
				},
				[]string{"policy"},
			),
			FeedGenerationTime: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_generation_seconds",
					Help:    "End-to-end feed page assembly latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"policy"},
			),
			FeedCandidatesScored: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_candidates_scored",
					Help:    "Number of candidates scored per feed request",
					Buckets: prometheus.ExponentialBuckets(1, 4, 7),
				},
				[]string{"policy"},
			),
			FeedCandidatesServed: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_items_served_total",
					Help: "Total number of hydrated feed items returned",
				},
				[]string{"policy"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limited requests",
				},
				[]string{"endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
