package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

// Metrics implements every hook interface on top of Prometheus collectors.
// Each Metrics owns its registry, so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	StageTotal    *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	GraphNodes    prometheus.Histogram
	CacheRequests *prometheus.CounterVec
	CacheBytes    prometheus.Counter
	Sessions      prometheus.Gauge
	SessionEvents *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors under the given namespace and registers
// them, together with the Go runtime and process collectors.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_total",
			Help:      "Pipeline stage executions by stage and outcome code",
		}, []string{"stage", "code"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		GraphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in built graphs",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Artifact cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		CacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the artifact cache",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewer_sessions",
			Help:      "Open viewer sessions",
		}),
		SessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewer_events_total",
			Help:      "Viewer session events by type",
		}, []string{"event"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.StageTotal,
		m.StageDuration,
		m.GraphNodes,
		m.CacheRequests,
		m.CacheBytes,
		m.Sessions,
		m.SessionEvents,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the Prometheus registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Install registers m for every hook category.
func (m *Metrics) Install() {
	SetPipelineHooks(m)
	SetCacheHooks(m)
	SetViewerHooks(m)
	SetHTTPHooks(m)
}

func (m *Metrics) stage(name string, d time.Duration, err error) {
	code := "ok"
	if err != nil {
		code = string(tgerrors.GetCode(err))
		if code == "" {
			code = string(tgerrors.ErrCodeInternal)
		}
	}
	m.StageTotal.WithLabelValues(name, code).Inc()
	m.StageDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _, _ string, _ int, d time.Duration, err error) {
	m.stage("load", d, err)
}

func (m *Metrics) OnBuildStart(context.Context, int, int) {}

func (m *Metrics) OnBuildComplete(_ context.Context, nodes, _ int, d time.Duration, err error) {
	m.stage("build", d, err)
	if err == nil {
		m.GraphNodes.Observe(float64(nodes))
	}
}

func (m *Metrics) OnLayoutStart(context.Context, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, _ string, d time.Duration) {
	m.stage("layout", d, nil)
}

func (m *Metrics) OnRenderStart(context.Context, string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	m.stage("render", d, err)
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, _ string, size int) {
	m.CacheBytes.Add(float64(size))
}

func (m *Metrics) OnSessionOpen(context.Context, string) {
	m.Sessions.Inc()
	m.SessionEvents.WithLabelValues("open").Inc()
}

func (m *Metrics) OnSessionClose(_ context.Context, _, reason string) {
	m.Sessions.Dec()
	m.SessionEvents.WithLabelValues(reason).Inc()
}

func (m *Metrics) OnDocumentLoad(_ context.Context, _ string, err error) {
	if err != nil {
		m.SessionEvents.WithLabelValues("load_failed").Inc()
		return
	}
	m.SessionEvents.WithLabelValues("load").Inc()
}

func (m *Metrics) OnSelect(_ context.Context, _, nodeID string) {
	if nodeID == "" {
		m.SessionEvents.WithLabelValues("deselect").Inc()
		return
	}
	m.SessionEvents.WithLabelValues("select").Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ ViewerHooks   = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)
