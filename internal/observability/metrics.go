package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard builder.
type Metrics struct {
	BuildsTotal      prometheus.Counter
	BuildErrors      *prometheus.CounterVec // labels: stage={load,build,emit}
	BuildDuration    prometheus.Histogram
	SpecBytes        *prometheus.GaugeVec // labels: view
	SpecsPublished   prometheus.Counter
	PublishErrors    prometheus.Counter
	SpecRequests     *prometheus.CounterVec // labels: view, status
	PipelineRunning  prometheus.Gauge
	LastBuildSeconds prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		BuildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Total successful dashboard builds.",
		}),
		BuildErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_errors_total",
			Help:      "Failed dashboard builds by stage.",
		}, []string{"stage"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete load-build-emit cycle.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		SpecBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spec_bytes",
			Help:      "Size of the last emitted specification per view.",
		}, []string{"view"}),
		SpecsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "specs_published_total",
			Help:      "Total specifications written to the spec topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed spec publish attempts.",
		}),
		SpecRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spec_requests_total",
			Help:      "Spec HTTP requests by view and status code.",
		}, []string{"view", "status"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		LastBuildSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}),
	}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.BuildsTotal,
		m.BuildErrors,
		m.BuildDuration,
		m.SpecBytes,
		m.SpecsPublished,
		m.PublishErrors,
		m.SpecRequests,
		m.PipelineRunning,
		m.LastBuildSeconds,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that no registry collects. One-shot
// commands that never serve /metrics use it.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
