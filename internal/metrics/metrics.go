// Package metrics implements the observability hooks with Prometheus
// collectors.
//
// A Metrics value owns its collectors and registers them on the registerer
// passed to New, so tests can use a private registry:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	m.Install()
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pyview/hiergraph/pkg/observability"
)

const namespace = "hiergraph"

// Metrics holds every collector exported by hiergraph.
type Metrics struct {
	gatherer prometheus.Gatherer

	TransformsTotal   *prometheus.CounterVec
	TransformDuration prometheus.Histogram
	TransformItems    prometheus.Histogram
	StageDuration     *prometheus.HistogramVec
	StageSkipped      *prometheus.CounterVec
	GraphNodes        prometheus.Gauge
	GraphEdges        prometheus.Gauge

	ViewBuildsTotal   *prometheus.CounterVec
	ViewBuildDuration *prometheus.HistogramVec
	ViewNodes         *prometheus.GaugeVec

	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ReloadsTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		TransformsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transforms_total",
			Help:      "Completed graph transformations by outcome.",
		}, []string{"outcome"}),
		TransformDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_seconds",
			Help:      "Time spent transforming an analysis into a graph.",
			Buckets:   prometheus.DefBuckets,
		}),
		TransformItems: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_items",
			Help:      "Number of input records per transformation.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_stage_seconds",
			Help:      "Time spent in each transformation stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		StageSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_skipped_total",
			Help:      "Records skipped as malformed or duplicate, by stage.",
		}, []string{"stage"}),
		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in the last transformed graph.",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Number of edges in the last transformed graph.",
		}),

		ViewBuildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_builds_total",
			Help:      "View builds by level and result.",
		}, []string{"level", "result"}),
		ViewBuildDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_build_seconds",
			Help:      "Time spent building a clustered view.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"level"}),
		ViewNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_visible_nodes",
			Help:      "Visible nodes in the last view built at each level.",
		}, []string{"level"}),

		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ReloadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reloads of the watched analysis file by result.",
		}, []string{"result"}),
	}
}

// Install registers m as the global transform, cache and server hooks.
func (m *Metrics) Install() {
	observability.SetTransformHooks(transformHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetServerHooks(serverHooks{m})
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// Hook implementations
// =============================================================================

type transformHooks struct{ m *Metrics }

func (h transformHooks) OnTransformStart(_ context.Context, _ string, items int) {
	h.m.TransformItems.Observe(float64(items))
}

func (h transformHooks) OnStageComplete(_ context.Context, stage string, _, skipped int, d time.Duration) {
	h.m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if skipped > 0 {
		h.m.StageSkipped.WithLabelValues(stage).Add(float64(skipped))
	}
}

func (h transformHooks) OnTransformComplete(_ context.Context, _, outcome string, nodes, edges int, d time.Duration) {
	h.m.TransformsTotal.WithLabelValues(outcome).Inc()
	h.m.TransformDuration.Observe(d.Seconds())
	if outcome == "succeeded" {
		h.m.GraphNodes.Set(float64(nodes))
		h.m.GraphEdges.Set(float64(edges))
	}
}

func (h transformHooks) OnViewBuild(_ context.Context, level, nodes, _ int, d time.Duration, err error) {
	lv := strconv.Itoa(level)
	h.m.ViewBuildsTotal.WithLabelValues(lv, result(err)).Inc()
	if err != nil {
		return
	}
	h.m.ViewBuildDuration.WithLabelValues(lv).Observe(d.Seconds())
	h.m.ViewNodes.WithLabelValues(lv).Set(float64(nodes))
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.m.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.m.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

type serverHooks struct{ m *Metrics }

func (h serverHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (h serverHooks) OnReload(_ context.Context, _ string, err error) {
	h.m.ReloadsTotal.WithLabelValues(result(err)).Inc()
}
