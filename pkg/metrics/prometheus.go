// Package metrics provides Prometheus metrics for the compass-wrapped service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis outcomes recorded by RecordAnalysis.
const (
	OutcomeSuccess = "success" // every component computed
	OutcomePartial = "partial" // at least one component failed
	OutcomeFailed  = "failed"  // the upload could not be normalized
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Analytics
	analysesTotal       *prometheus.CounterVec
	analysisLatency     prometheus.Histogram
	componentErrors     *prometheus.CounterVec
	componentLatency    *prometheus.HistogramVec
	rowsNormalized      prometheus.Counter
	unparsedTimestamps  prometheus.Counter
	unparsedJourneyIDs  prometheus.Counter
	journeysPerAnalysis prometheus.Histogram

	// Ranking
	submissionsTotal   prometheus.Counter
	lookupsTotal       *prometheus.CounterVec
	populationSize     *prometheus.GaugeVec
	percentileObserved prometheus.Histogram

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "compass",
		subsystem:        "wrapped",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collector definitions
	auto := promauto.With(m.registry)

	m.analysesTotal = auto.NewCounterVec(
		m.counterOpts("analyses_total", "Uploaded exports analyzed, by outcome"),
		[]string{"outcome"},
	)
	m.analysisLatency = auto.NewHistogram(
		m.histogramOpts("analysis_latency_milliseconds", "End-to-end analysis latency in milliseconds", m.histogramBuckets),
	)
	m.componentErrors = auto.NewCounterVec(
		m.counterOpts("component_errors_total", "Analyzer failures isolated from sibling components"),
		[]string{"component"},
	)
	m.componentLatency = auto.NewHistogramVec(
		m.histogramOpts("component_latency_milliseconds", "Per-analyzer latency in milliseconds", m.histogramBuckets),
		[]string{"component"},
	)
	m.rowsNormalized = auto.NewCounter(
		m.counterOpts("rows_normalized_total", "Transit events produced by the normalizer"),
	)
	m.unparsedTimestamps = auto.NewCounter(
		m.counterOpts("unparsed_timestamps_total", "Rows retained with a null DateTime"),
	)
	m.unparsedJourneyIDs = auto.NewCounter(
		m.counterOpts("unparsed_journey_ids_total", "Rows retained with a null JourneyId"),
	)
	m.journeysPerAnalysis = auto.NewHistogram(
		m.histogramOpts("journeys_per_analysis", "Distinct journeys per analyzed export",
			[]float64{1, 10, 50, 100, 250, 500, 1000, 2500}),
	)

	m.submissionsTotal = auto.NewCounter(
		m.counterOpts("submissions_total", "User stats records persisted"),
	)
	m.lookupsTotal = auto.NewCounterVec(
		m.counterOpts("lookups_total", "User stats lookups, by result"),
		[]string{"result"},
	)
	m.populationSize = auto.NewGaugeVec(
		m.gaugeOpts("population_size", "Size of the last comparison population, by period type"),
		[]string{"period_type"},
	)
	m.percentileObserved = auto.NewHistogram(
		m.histogramOpts("percentile", "Distribution of computed percentile ranks",
			[]float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}),
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds", m.histogramBuckets),
		[]string{"driver", "op"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Store operation failures"),
		[]string{"driver", "op"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status code"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordAnalysis counts an analysis with its outcome and latency.
func (m *Manager) RecordAnalysis(outcome string, latencyMs float64) error {
	switch outcome {
	case OutcomeSuccess, OutcomePartial, OutcomeFailed:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
	m.analysesTotal.WithLabelValues(outcome).Inc()
	m.analysisLatency.Observe(latencyMs)
	return nil
}

// RecordComponent observes one analyzer run.
func (m *Manager) RecordComponent(component string, latencyMs float64, failed bool) {
	m.componentLatency.WithLabelValues(component).Observe(latencyMs)
	if failed {
		m.componentErrors.WithLabelValues(component).Inc()
	}
}

// RecordNormalized counts normalized rows and the row-level anomalies among them.
func (m *Manager) RecordNormalized(rows, badTimestamps, badJourneyIDs int) {
	m.rowsNormalized.Add(float64(rows))
	m.unparsedTimestamps.Add(float64(badTimestamps))
	m.unparsedJourneyIDs.Add(float64(badJourneyIDs))
}

// RecordJourneys observes the distinct journey count of an export.
func (m *Manager) RecordJourneys(n int) { m.journeysPerAnalysis.Observe(float64(n)) }

// RecordSubmission counts a persisted user stats record.
func (m *Manager) RecordSubmission() { m.submissionsTotal.Inc() }

// RecordLookup counts a lookup by result ("found", "not_found", "error").
func (m *Manager) RecordLookup(result string) { m.lookupsTotal.WithLabelValues(result).Inc() }

// RecordRanking records the population size and resulting percentile.
func (m *Manager) RecordRanking(periodType string, population int, percentile float64) {
	m.populationSize.WithLabelValues(periodType).Set(float64(population))
	m.percentileObserved.Observe(percentile)
}

// RecordStoreOp observes a store call.
func (m *Manager) RecordStoreOp(driver, op string, latencyMs float64, err error) {
	m.storeLatency.WithLabelValues(driver, op).Observe(latencyMs)
	if err != nil {
		m.storeErrors.WithLabelValues(driver, op).Inc()
	}
}

// RecordHTTPRequest records one served HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystem sets process level gauges.
func (m *Manager) UpdateSystem(heapBytes uint64, goroutines int) {
	m.systemMemoryUsage.Set(float64(heapBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// Package-level helpers delegate to the global manager.

// RecordAnalysis counts an analysis on the global manager.
func RecordAnalysis(outcome string, latencyMs float64) error {
	return globalManager.RecordAnalysis(outcome, latencyMs)
}

// RecordComponent observes one analyzer run on the global manager.
func RecordComponent(component string, latencyMs float64, failed bool) {
	globalManager.RecordComponent(component, latencyMs, failed)
}

// RecordNormalized counts normalizer output on the global manager.
func RecordNormalized(rows, badTimestamps, badJourneyIDs int) {
	globalManager.RecordNormalized(rows, badTimestamps, badJourneyIDs)
}

// RecordJourneys observes a journey count on the global manager.
func RecordJourneys(n int) { globalManager.RecordJourneys(n) }

// RecordSubmission counts a submission on the global manager.
func RecordSubmission() { globalManager.RecordSubmission() }

// RecordLookup counts a lookup on the global manager.
func RecordLookup(result string) { globalManager.RecordLookup(result) }

// RecordRanking records a ranking on the global manager.
func RecordRanking(periodType string, population int, percentile float64) {
	globalManager.RecordRanking(periodType, population, percentile)
}

// RecordStoreOp observes a store call on the global manager.
func RecordStoreOp(driver, op string, latencyMs float64, err error) {
	globalManager.RecordStoreOp(driver, op, latencyMs, err)
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// UpdateSystem sets process gauges on the global manager.
func UpdateSystem(heapBytes uint64, goroutines int) {
	globalManager.UpdateSystem(heapBytes, goroutines)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
