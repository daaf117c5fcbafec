// Package metrics holds the Prometheus collectors for the idea pipeline.
// Collectors exist from package init so instrumented code works without
// registration; Register exposes them on a registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nextvideo_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextvideo_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextvideo_cache_hits_total",
			Help: "Cache hits, by artifact kind.",
		},
		[]string{"kind"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextvideo_cache_misses_total",
			Help: "Cache misses, by artifact kind.",
		},
		[]string{"kind"},
	)

	GenerationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextvideo_generation_calls_total",
			Help: "Text generation calls, by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	QuotaRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nextvideo_quota_rejections_total",
			Help: "Peer discovery requests refused by the free-tier gate.",
		},
	)

	PeerOutliers = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nextvideo_peer_outliers",
			Help:    "Outlier videos found per analysed peer channel.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)
)

var registerOnce sync.Once

// Register adds every collector to reg. Later calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			RequestDuration,
			RequestsInFlight,
			CacheHits,
			CacheMisses,
			GenerationCalls,
			QuotaRejections,
			PeerOutliers,
		)
	})
}
