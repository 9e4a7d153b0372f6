// Package metrics provides Prometheus metrics for the drawcast engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the drawcast service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Prediction metrics
	predictions       *prometheus.CounterVec
	strategyFallbacks *prometheus.CounterVec
	predictLatency    prometheus.Histogram

	// Backtest metrics
	backtestRuns      prometheus.Counter
	backtestSteps     prometheus.Counter
	backtestTop1Hits  prometheus.Counter
	backtestTop6Hits  prometheus.Counter
	normalOverlap     prometheus.Histogram
	stepLatency       prometheus.Histogram
	stageErrors       *prometheus.CounterVec
	lastTop1Rate      prometheus.Gauge
	lastTop6Rate      prometheus.Gauge
	lastMeanOverlap   prometheus.Gauge
	modelFitLatency   *prometheus.HistogramVec
	featureRowsPerRun prometheus.Histogram

	// Worker metrics
	workerActiveCount prometheus.Gauge
	workerJobLatency  prometheus.Histogram
	workerErrors      prometheus.Counter

	// Storage metrics
	storedRecords    prometheus.Gauge
	importAdded      prometheus.Counter
	importDuplicates prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors by component
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "drawcast",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	latencyBuckets := []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000}

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("predictions_total"),
		Help:        "Total number of predictions produced, by strategy",
		ConstLabels: m.customLabels,
	}, []string{"strategy"})

	m.strategyFallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("strategy_fallbacks_total"),
		Help:        "Number of times a strategy failed and the next one was tried",
		ConstLabels: m.customLabels,
	}, []string{"strategy"})

	m.predictLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("predict_latency_milliseconds"),
		Help:        "End-to-end latency of a single prediction in milliseconds",
		Buckets:     latencyBuckets,
		ConstLabels: m.customLabels,
	})

	m.backtestRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_runs_total"),
		Help:        "Total number of completed backtest runs",
		ConstLabels: m.customLabels,
	})

	m.backtestSteps = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_steps_total"),
		Help:        "Total number of evaluated walk-forward steps",
		ConstLabels: m.customLabels,
	})

	m.backtestTop1Hits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_top1_hits_total"),
		Help:        "Walk-forward steps where the primary candidate was the actual special",
		ConstLabels: m.customLabels,
	})

	m.backtestTop6Hits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_top6_hits_total"),
		Help:        "Walk-forward steps where the special shortlist contained the actual special",
		ConstLabels: m.customLabels,
	})

	m.normalOverlap = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_normal_overlap"),
		Help:        "Overlap between the normal shortlist and the actual normals per step",
		Buckets:     []float64{0, 1, 2, 3, 4, 5, 6},
		ConstLabels: m.customLabels,
	})

	m.stepLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_step_latency_milliseconds"),
		Help:        "Latency of a single walk-forward step in milliseconds",
		Buckets:     latencyBuckets,
		ConstLabels: m.customLabels,
	})

	m.stageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stage_errors_total"),
		Help:        "Pipeline failures by stage",
		ConstLabels: m.customLabels,
	}, []string{"stage"})

	m.lastTop1Rate = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_last_top1_rate"),
		Help:        "Top-1 hit rate of the most recent backtest run",
		ConstLabels: m.customLabels,
	})

	m.lastTop6Rate = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_last_top6_rate"),
		Help:        "Top-6 hit rate of the most recent backtest run",
		ConstLabels: m.customLabels,
	})

	m.lastMeanOverlap = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backtest_last_mean_normal_overlap"),
		Help:        "Mean normal-shortlist overlap of the most recent backtest run",
		ConstLabels: m.customLabels,
	})

	m.modelFitLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_fit_latency_milliseconds"),
		Help:        "Model search and fit latency in milliseconds, by model",
		Buckets:     latencyBuckets,
		ConstLabels: m.customLabels,
	}, []string{"model"})

	m.featureRowsPerRun = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("feature_rows"),
		Help:        "Number of labeled feature rows built per pipeline pass",
		Buckets:     prometheus.ExponentialBuckets(49, 2, 12),
		ConstLabels: m.customLabels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Number of workers currently running a job",
		ConstLabels: m.customLabels,
	})

	m.workerJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_job_latency_milliseconds"),
		Help:        "Worker job latency in milliseconds",
		Buckets:     latencyBuckets,
		ConstLabels: m.customLabels,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Total number of failed worker jobs",
		ConstLabels: m.customLabels,
	})

	m.storedRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stored_records"),
		Help:        "Number of draw records in the store",
		ConstLabels: m.customLabels,
	})

	m.importAdded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("import_added_total"),
		Help:        "Draw records newly inserted by imports",
		ConstLabels: m.customLabels,
	})

	m.importDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("import_duplicates_total"),
		Help:        "Draw records skipped by imports because the period already existed",
		ConstLabels: m.customLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Errors by component and error type",
		ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})
}

// RecordPrediction counts a prediction produced by strategy and its latency.
func RecordPrediction(strategy string, latencyMs float64) {
	globalManager.predictions.WithLabelValues(strategy).Inc()
	globalManager.predictLatency.Observe(latencyMs)
}

// RecordStrategyFallback counts a strategy failure that triggered a fallback.
func RecordStrategyFallback(strategy string) {
	globalManager.strategyFallbacks.WithLabelValues(strategy).Inc()
}

// RecordBacktestStep records the outcome of one walk-forward step.
func RecordBacktestStep(top1, top6 bool, overlap int, latencyMs float64) {
	globalManager.backtestSteps.Inc()
	if top1 {
		globalManager.backtestTop1Hits.Inc()
	}
	if top6 {
		globalManager.backtestTop6Hits.Inc()
	}
	globalManager.normalOverlap.Observe(float64(overlap))
	globalManager.stepLatency.Observe(latencyMs)
}

// RecordBacktestRun publishes the summary of a finished backtest run.
func RecordBacktestRun(top1Rate, top6Rate, meanOverlap float64) {
	globalManager.backtestRuns.Inc()
	globalManager.lastTop1Rate.Set(top1Rate)
	globalManager.lastTop6Rate.Set(top6Rate)
	globalManager.lastMeanOverlap.Set(meanOverlap)
}

// RecordStageError counts a failure in a pipeline stage.
func RecordStageError(stage string) {
	globalManager.stageErrors.WithLabelValues(stage).Inc()
}

// RecordModelFitLatency records how long a model search and fit took.
func RecordModelFitLatency(model string, latencyMs float64) {
	globalManager.modelFitLatency.WithLabelValues(model).Observe(latencyMs)
}

// RecordFeatureRows records the size of a training matrix.
func RecordFeatureRows(rows int) {
	globalManager.featureRowsPerRun.Observe(float64(rows))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerJobLatency records worker job latency.
func RecordWorkerJobLatency(latencyMs float64) {
	globalManager.workerJobLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateStoredRecords sets the number of records in the store.
func UpdateStoredRecords(count int) {
	globalManager.storedRecords.Set(float64(count))
}

// RecordImport counts inserted and duplicate records of an import.
func RecordImport(added, duplicates int) {
	globalManager.importAdded.Add(float64(added))
	globalManager.importDuplicates.Add(float64(duplicates))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
