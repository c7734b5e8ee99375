package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the dashboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Refresh cycle
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	fetchDuration *prometheus.HistogramVec
	lastCycleUnix prometheus.Gauge

	// Reconciliation
	students       prometheus.Gauge
	sourceRecords  *prometheus.GaugeVec
	skippedEntries *prometheus.CounterVec
	subscribers    prometheus.Gauge

	// Policy persistence
	policySaves         *prometheus.CounterVec
	policyLoadFallbacks prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry; Go and process collectors are added by RegisterRuntimeCollectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "studentdash",
		subsystem:        "dashboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
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

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cycles = auto.NewCounterVec(m.counterOpts("refresh_cycles_total",
		"Refresh cycles by result (ok, failed, discarded)"), []string{"result"})
	m.cycleDuration = auto.NewHistogram(m.histogramOpts("refresh_cycle_duration_milliseconds",
		"End-to-end duration of one fetch and merge cycle"))
	m.fetchDuration = auto.NewHistogramVec(m.histogramOpts("snapshot_fetch_duration_milliseconds",
		"Duration of a single snapshot fetch by file"), []string{"file"})
	m.lastCycleUnix = auto.NewGauge(m.gaugeOpts("refresh_last_success_unix",
		"Unix time of the last published student list"))

	m.students = auto.NewGauge(m.gaugeOpts("students",
		"Number of students in the last published list"))
	m.sourceRecords = auto.NewGaugeVec(m.gaugeOpts("source_records",
		"Records contributed by each source in the last cycle"), []string{"source"})
	m.skippedEntries = auto.NewCounterVec(m.counterOpts("skipped_entries_total",
		"Snapshot entries skipped as unusable, by source"), []string{"source"})
	m.subscribers = auto.NewGauge(m.gaugeOpts("subscribers",
		"Current number of student list subscribers"))

	m.policySaves = auto.NewCounterVec(m.counterOpts("policy_saves_total",
		"Policy save attempts by result"), []string{"result"})
	m.policyLoadFallbacks = auto.NewCounter(m.counterOpts("policy_load_fallbacks_total",
		"Policy loads that fell back to defaults"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
}

// RecordCycle counts a refresh cycle outcome and, for completed cycles, its duration.
func (m *Manager) RecordCycle(result string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	if durationMs >= 0 {
		m.cycleDuration.Observe(durationMs)
	}
}

// MarkPublished stamps the last successful publish time.
func (m *Manager) MarkPublished(unix int64) {
	if m.enabled {
		m.lastCycleUnix.Set(float64(unix))
	}
}

// RecordFetch records the duration of one snapshot fetch.
func (m *Manager) RecordFetch(file string, durationMs float64) {
	if m.enabled {
		m.fetchDuration.WithLabelValues(file).Observe(durationMs)
	}
}

// UpdateStudents sets the published student count.
func (m *Manager) UpdateStudents(n int) {
	if m.enabled {
		m.students.Set(float64(n))
	}
}

// UpdateSourceRecords sets the per-source record count.
func (m *Manager) UpdateSourceRecords(source string, n int) {
	if m.enabled {
		m.sourceRecords.WithLabelValues(source).Set(float64(n))
	}
}

// AddSkipped increments the skipped-entry counter for a source.
func (m *Manager) AddSkipped(source string, n int) {
	if m.enabled && n > 0 {
		m.skippedEntries.WithLabelValues(source).Add(float64(n))
	}
}

// UpdateSubscribers sets the subscriber gauge.
func (m *Manager) UpdateSubscribers(n int) {
	if m.enabled {
		m.subscribers.Set(float64(n))
	}
}

// RecordPolicySave counts a policy save attempt.
func (m *Manager) RecordPolicySave(result string) {
	if m.enabled {
		m.policySaves.WithLabelValues(result).Inc()
	}
}

// RecordPolicyLoadFallback counts a load that fell back to defaults.
func (m *Manager) RecordPolicyLoadFallback() {
	if m.enabled {
		m.policyLoadFallbacks.Inc()
	}
}

// RecordHTTP records one HTTP request and its duration.
func (m *Manager) RecordHTTP(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Package-level helpers on the global manager.

// RecordCycle counts a refresh cycle outcome.
func RecordCycle(result string, durationMs float64) { globalManager.RecordCycle(result, durationMs) }

// MarkPublished stamps the last successful publish time.
func MarkPublished(unix int64) { globalManager.MarkPublished(unix) }

// RecordFetch records a snapshot fetch duration.
func RecordFetch(file string, durationMs float64) { globalManager.RecordFetch(file, durationMs) }

// UpdateStudents sets the published student count.
func UpdateStudents(n int) { globalManager.UpdateStudents(n) }

// UpdateSourceRecords sets the per-source record count.
func UpdateSourceRecords(source string, n int) { globalManager.UpdateSourceRecords(source, n) }

// AddSkipped increments the skipped-entry counter.
func AddSkipped(source string, n int) { globalManager.AddSkipped(source, n) }

// UpdateSubscribers sets the subscriber gauge.
func UpdateSubscribers(n int) { globalManager.UpdateSubscribers(n) }

// RecordPolicySave counts a policy save attempt.
func RecordPolicySave(result string) { globalManager.RecordPolicySave(result) }

// RecordPolicyLoadFallback counts a policy load fallback.
func RecordPolicyLoadFallback() { globalManager.RecordPolicyLoadFallback() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTP(endpoint, method, statusCode, durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
