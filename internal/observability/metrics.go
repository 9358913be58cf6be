package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline.
type Metrics struct {
	SnapshotsConsumed prometheus.Counter
	ReportsPublished  prometheus.Counter
	TransformErrors   prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Analysis metrics.
	SeasonsDetected prometheus.Counter
	AlertsFired     *prometheus.CounterVec // labels: severity={high,medium,info}
	ShapeMismatches prometheus.Counter
	BaselineCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SnapshotsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_analysis",
			Name:      "snapshots_consumed_total",
			Help:      "Total field snapshots read from the source topic.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_analysis",
			Name:      "reports_published_total",
			Help:      "Total field reports written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_analysis",
			Name:      "transform_errors_total",
			Help:      "Total snapshot analysis failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_analysis",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_analysis",
			Name:      "batch_size",
			Help:      "Number of snapshots per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_analysis",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-analyze-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SeasonsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_analysis",
			Name:      "seasons_detected_total",
			Help:      "Total growing seasons detected across all fields.",
		}),
		AlertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_analysis",
			Name:      "alerts_fired_total",
			Help:      "Alerts fired by severity.",
		}, []string{"severity"}),
		ShapeMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_analysis",
			Name:      "shape_mismatches_total",
			Help:      "Grid operations skipped because of mismatched dimensions.",
		}),
		BaselineCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_analysis",
			Name:      "baseline_cache_total",
			Help:      "Baseline cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.SnapshotsConsumed,
		m.ReportsPublished,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.SeasonsDetected,
		m.AlertsFired,
		m.ShapeMismatches,
		m.BaselineCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SnapshotsConsumed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_analysis", Name: "snapshots_consumed_total"}),
		ReportsPublished:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_analysis", Name: "reports_published_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_analysis", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crop_analysis", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_analysis", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_analysis", Name: "batch_processing_duration_seconds"}),
		SeasonsDetected:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_analysis", Name: "seasons_detected_total"}),
		AlertsFired:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_analysis", Name: "alerts_fired_total"}, []string{"severity"}),
		ShapeMismatches:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_analysis", Name: "shape_mismatches_total"}),
		BaselineCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_analysis", Name: "baseline_cache_total"}, []string{"result"}),
	}
}
