package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion and prediction pipeline.
type Metrics struct {
	CyclesTotal         prometheus.Counter
	CycleErrors         prometheus.Counter
	GaugeUpdates        prometheus.Counter
	GaugeUpdateErrors   prometheus.Counter
	PublishFailures     prometheus.Counter
	OrchestratorRunning prometheus.Gauge

	Assessments *prometheus.CounterVec // labels: level={low,moderate,high,severe}

	// Forecast source metrics.
	ForecastRequests *prometheus.CounterVec // labels: source, outcome={success,error,empty}
	ForecastCache    *prometheus.CounterVec // labels: result={hit,miss}

	CycleDuration  prometheus.Histogram
	GaugeBatchSize prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "cycles_total",
			Help:      "Total completed ingestion and prediction cycles.",
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "cycle_errors_total",
			Help:      "Total cycles that ended with an unrecoverable error.",
		}),
		GaugeUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "gauge_updates_total",
			Help:      "Total gauge state updates persisted.",
		}),
		GaugeUpdateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "gauge_update_errors_total",
			Help:      "Total per-gauge failures skipped within a cycle.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "publish_failures_total",
			Help:      "Total notification publish failures.",
		}),
		OrchestratorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_risk",
			Name:      "orchestrator_running",
			Help:      "1 when the ingestion orchestrator is active, 0 when stopped.",
		}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "assessments_total",
			Help:      "Risk assessments persisted, by risk level.",
		}, []string{"level"}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "forecast_requests_total",
			Help:      "Forecast source attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_risk",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete ingestion and prediction cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		GaugeBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_risk",
			Name:      "gauge_batch_size",
			Help:      "Number of sites requested per external source batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50},
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleErrors,
		m.GaugeUpdates,
		m.GaugeUpdateErrors,
		m.PublishFailures,
		m.OrchestratorRunning,
		m.Assessments,
		m.ForecastRequests,
		m.ForecastCache,
		m.CycleDuration,
		m.GaugeBatchSize,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CyclesTotal:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "cycles_total"}),
		CycleErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "cycle_errors_total"}),
		GaugeUpdates:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "gauge_updates_total"}),
		GaugeUpdateErrors:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "gauge_update_errors_total"}),
		PublishFailures:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "publish_failures_total"}),
		OrchestratorRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flood_risk", Name: "orchestrator_running"}),
		Assessments:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_risk", Name: "assessments_total"}, []string{"level"}),
		ForecastRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_risk", Name: "forecast_requests_total"}, []string{"source", "outcome"}),
		ForecastCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_risk", Name: "forecast_cache_total"}, []string{"result"}),
		CycleDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flood_risk", Name: "cycle_duration_seconds"}),
		GaugeBatchSize:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flood_risk", Name: "gauge_batch_size"}),
	}
}
