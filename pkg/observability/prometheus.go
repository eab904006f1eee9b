package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/supportree/pkg/core/support"
)

const namespace = "supportree"

// PrometheusHooks implements every hook interface with Prometheus collectors.
type PrometheusHooks struct {
	searches     prometheus.Counter
	searchTime   prometheus.Histogram
	explored     prometheus.Counter
	pruned       prometheus.Counter
	candidates   prometheus.Counter
	validated    *prometheus.CounterVec
	cacheEvents  *prometheus.CounterVec
	cacheBytes   prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpTime     *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "searches_total",
			Help: "Bounded tree searches run, including escalation steps.",
		}),
		searchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "search_duration_seconds",
			Help:    "Duration of a single bounded search.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		explored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "search_states_total",
			Help: "Search states explored.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "search_junction_prunes_total",
			Help: "Placements rejected by junction checks during search.",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "candidate_trees_total",
			Help: "Complete candidate trees produced by the search.",
		}),
		validated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "validated_trees_total",
			Help: "Candidate trees checked against all junctions, by outcome.",
		}, []string{"outcome"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_events_total",
			Help: "Cache lookups and writes by key type and event.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "API request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		h.searches, h.searchTime, h.explored, h.pruned, h.candidates,
		h.validated, h.cacheEvents, h.cacheBytes, h.httpRequests, h.httpTime,
	)
	return h
}

// OnEnumerateStart implements [SearchHooks].
func (h *PrometheusHooks) OnEnumerateStart(context.Context, int, support.Bounds) {
	h.searches.Inc()
}

// OnEnumerateComplete implements [SearchHooks].
func (h *PrometheusHooks) OnEnumerateComplete(_ context.Context, stats support.Stats, d time.Duration) {
	h.searchTime.Observe(d.Seconds())
	h.explored.Add(float64(stats.Explored))
	h.pruned.Add(float64(stats.PrunedJunction))
	h.candidates.Add(float64(stats.Candidates))
}

// OnValidateComplete implements [SearchHooks].
func (h *PrometheusHooks) OnValidateComplete(_ context.Context, candidates, valid int, _ time.Duration) {
	h.validated.WithLabelValues("valid").Add(float64(valid))
	h.validated.WithLabelValues("rejected").Add(float64(candidates - valid))
}

// OnCacheHit implements [CacheHooks].
func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements [CacheHooks].
func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements [CacheHooks].
func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

// OnResponse implements [HTTPHooks].
func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.httpTime.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the scrape endpoint for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var (
	_ SearchHooks = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)
