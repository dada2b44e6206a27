// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "amora"

var (
	// DiscoveryRequests counts discover calls, cached or not.
	DiscoveryRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "discovery",
		Name:      "requests_total",
		Help:      "Total match discovery requests.",
	})

	// DiscoveryCacheHits counts discover calls served from cache.
	DiscoveryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "discovery",
		Name:      "cache_hits_total",
		Help:      "Discovery requests served from the result cache.",
	})

	// DiscoveryCacheMisses counts discover calls that recomputed.
	DiscoveryCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "discovery",
		Name:      "cache_misses_total",
		Help:      "Discovery requests recomputed from storage.",
	})

	// DiscoveryDuration observes end-to-end discover latency.
	DiscoveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "discovery",
		Name:      "duration_seconds",
		Help:      "End-to-end latency of match discovery.",
		Buckets:   prometheus.DefBuckets,
	})

	// ExplanationFallbacks counts candidates annotated with the fallback
	// text because the explanation service failed or timed out.
	ExplanationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "discovery",
		Name:      "explanation_fallbacks_total",
		Help:      "Explanations substituted with the deterministic fallback.",
	})

	// InteractionActions counts like/pass actions by resulting status.
	InteractionActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "interactions",
		Name:      "actions_total",
		Help:      "Like/pass actions by action and resulting pair status.",
	}, []string{"action", "status"})
)

// NewTimer starts a latency observation against h.
func NewTimer(h prometheus.Histogram) *prometheus.Timer {
	return prometheus.NewTimer(h)
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
