// Package metrics provides Prometheus metrics for the accelerometer stream service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the stream service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ingest
	notificationsReceived *prometheus.CounterVec
	decodeErrors          *prometheus.CounterVec

	// Assembly
	samplesAssembled  prometheus.Counter
	assemblyEvictions *prometheus.CounterVec
	partialsDiscarded prometheus.Counter
	partialsInFlight  prometheus.Gauge

	// Live path
	bufferOccupancy    prometheus.Gauge
	classifications    *prometheus.CounterVec
	classifyLatency    prometheus.Histogram
	classifyConfidence prometheus.Histogram
	classifyErrors     *prometheus.CounterVec

	// Record path
	storeRowsWritten prometheus.Counter
	storeErrors      prometheus.Counter

	// Batch path
	windowsBuilt      prometheus.Counter
	recordingsSkipped prometheus.Counter

	// Queue
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueError *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	wsClients           prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "accelstream",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
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
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.notificationsReceived = auto.NewCounterVec(
		m.counterOpts("notifications_received_total", "Transport notifications handed to the pipeline"),
		[]string{"transport"},
	)
	m.decodeErrors = auto.NewCounterVec(
		m.counterOpts("decode_errors_total", "Payloads dropped because they could not be decoded"),
		[]string{"reason"},
	)

	m.samplesAssembled = auto.NewCounter(m.counterOpts("samples_assembled_total", "Complete samples emitted by the assembler"))
	m.assemblyEvictions = auto.NewCounterVec(
		m.counterOpts("assembly_evictions_total", "In-flight partial samples evicted before completion"),
		[]string{"reason"},
	)
	m.partialsDiscarded = auto.NewCounter(m.counterOpts("partials_discarded_total", "Incomplete samples dropped at session end"))
	m.partialsInFlight = auto.NewGauge(m.gaugeOpts("partials_in_flight", "Partial samples currently awaiting more axes"))

	m.bufferOccupancy = auto.NewGauge(m.gaugeOpts("buffer_occupancy", "Samples held by the rolling window buffer"))
	m.classifications = auto.NewCounterVec(
		m.counterOpts("classifications_total", "Classifier results by predicted class"),
		[]string{"class"},
	)
	m.classifyLatency = auto.NewHistogram(m.histogramOpts(
		"classify_latency_milliseconds", "Time spent reshaping a window and running the classifier", m.histogramBuckets))
	m.classifyConfidence = auto.NewHistogram(m.histogramOpts(
		"classify_confidence_percent", "Confidence of classifier results",
		[]float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 99}))
	m.classifyErrors = auto.NewCounterVec(
		m.counterOpts("classify_errors_total", "Classification attempts that failed"),
		[]string{"reason"},
	)

	m.storeRowsWritten = auto.NewCounter(m.counterOpts("store_rows_written_total", "Samples written to the record store"))
	m.storeErrors = auto.NewCounter(m.counterOpts("store_errors_total", "Record store write or flush failures"))

	m.windowsBuilt = auto.NewCounter(m.counterOpts("windows_built_total", "Look-back frames materialized by the batch windower"))
	m.recordingsSkipped = auto.NewCounter(m.counterOpts("recordings_skipped_total", "Recordings skipped because no class matched their name"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Notifications waiting for the pipeline worker"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum notifications the queue holds"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Notifications accepted by the queue"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Notifications handed to the pipeline worker"))
	m.queueEnqueueError = auto.NewCounterVec(
		m.counterOpts("queue_enqueue_errors_total", "Notifications rejected by the queue"),
		[]string{"reason"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
			[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}),
		[]string{"endpoint", "method", "status_code"},
	)
	m.wsClients = auto.NewGauge(m.gaugeOpts("websocket_clients", "Connected prediction stream clients"))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Current heap allocation in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Current number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10}))
}

// RecordNotification counts a notification arriving from a transport.
func RecordNotification(transport string) {
	globalManager.notificationsReceived.WithLabelValues(transport).Inc()
}

// RecordDecodeError counts a dropped payload.
func RecordDecodeError(reason string) {
	globalManager.decodeErrors.WithLabelValues(reason).Inc()
}

// RecordSampleAssembled counts a complete sample.
func RecordSampleAssembled() {
	globalManager.samplesAssembled.Inc()
}

// RecordAssemblyEvictions counts n in-flight partials evicted before completion.
func RecordAssemblyEvictions(reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.assemblyEvictions.WithLabelValues(reason).Add(float64(n))
}

// RecordPartialsDiscarded counts partials dropped at session end.
func RecordPartialsDiscarded(n int) {
	globalManager.partialsDiscarded.Add(float64(n))
}

// UpdatePartialsInFlight sets the number of open partial samples.
func UpdatePartialsInFlight(n int) {
	globalManager.partialsInFlight.Set(float64(n))
}

// UpdateBufferOccupancy sets the rolling buffer length.
func UpdateBufferOccupancy(n int) {
	globalManager.bufferOccupancy.Set(float64(n))
}

// RecordClassification records a classifier result.
func RecordClassification(class string, confidence, latencyMs float64) {
	globalManager.classifications.WithLabelValues(class).Inc()
	globalManager.classifyConfidence.Observe(confidence)
	globalManager.classifyLatency.Observe(latencyMs)
}

// RecordClassifyError counts a failed classification attempt.
func RecordClassifyError(reason string) {
	globalManager.classifyErrors.WithLabelValues(reason).Inc()
}

// RecordStoreWrite counts a persisted sample.
func RecordStoreWrite() {
	globalManager.storeRowsWritten.Inc()
}

// RecordStoreError counts a store failure.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// RecordWindowsBuilt adds to the number of batch frames produced.
func RecordWindowsBuilt(n int) {
	globalManager.windowsBuilt.Add(float64(n))
}

// RecordRecordingSkipped counts a recording with unrecognized provenance.
func RecordRecordingSkipped() {
	globalManager.recordingsSkipped.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected notification.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueError.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateWebsocketClients sets the number of connected stream clients.
func UpdateWebsocketClients(n int) {
	globalManager.wsClients.Set(float64(n))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// UpdateSystemMemoryUsage sets the current heap allocation.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}
