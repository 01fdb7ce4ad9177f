package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "sweeper"

// metrics holds the server's Prometheus collectors. Each Server owns its
// registry so several servers can live in one process.
type metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	uploads  prometheus.Counter
	exports  *prometheus.CounterVec
}

func newMetrics(store *core.WorkspaceStore, runs *core.RunLimiter) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by result and support code.",
		}, []string{"result", "code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent processing one file.",
			Buckets:   prometheus.DefBuckets,
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploaded_files_total",
			Help:      "Files accepted into a workspace.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exports_total",
			Help:      "Downloads served by export format.",
		}, []string{"format"}),
	}

	m.registry.MustRegister(
		m.runs,
		m.duration,
		m.uploads,
		m.exports,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "workspaces",
			Help:      "Workspaces currently held in memory.",
		}, func() float64 { return float64(store.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "runs_active",
			Help:      "Pipeline runs holding a limiter slot.",
		}, func() float64 { return float64(runs.Status().Active) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_refused_total",
			Help:      "Requests that gave up waiting for a pipeline slot.",
		}, func() float64 { return float64(runs.Status().Refused) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// process runs the pipeline for one file and records the outcome.
func (m *metrics) process(file core.UploadedFile, opts core.FileOptions) *core.FileResult {
	start := time.Now()
	res := core.Process(file, opts)
	m.duration.Observe(time.Since(start).Seconds())
	m.observe(res)
	return res
}

// observe counts a finished result.
func (m *metrics) observe(res *core.FileResult) {
	if res.OK() {
		m.runs.WithLabelValues("ok", "").Inc()
		return
	}
	m.runs.WithLabelValues("failed", core.MapError(res.Err).Code).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
