package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics groups every metric the platform emits.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Extraction pipeline
	DocumentsProcessedTotal CounterVec
	ExtractionDuration      HistogramVec
	LotsExtractedTotal      CounterVec
	RecordConfidence        HistogramVec
	ValidationWarningsTotal CounterVec
	CriteriaModeTotal       CounterVec

	// Extraction cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Persistence and search
	DBPoolSize      GaugeVec
	DBPoolActive    GaugeVec
	DBQueryDuration HistogramVec
	IndexedRecords  CounterVec

	// Event bus
	MessagesConsumedTotal    CounterVec
	MessagesProducedTotal    CounterVec
	MessagesDeadLetteredTotal CounterVec
	MessageProcessDuration   HistogramVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Histogram buckets tuned to the workloads they observe.
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	ExtractionDurationBuckets  = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	ConfidenceBuckets          = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	DBDurationBuckets          = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers the platform metric set on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.DocumentsProcessedTotal = collector.RegisterCounter("documents_processed_total", "Documents run through the extraction pipeline", "status")
	m.ExtractionDuration = collector.RegisterHistogram("extraction_duration_seconds", "End-to-end extraction duration per document", ExtractionDurationBuckets, "status")
	m.LotsExtractedTotal = collector.RegisterCounter("lots_extracted_total", "Lots extracted per segmentation strategy", "strategy")
	m.RecordConfidence = collector.RegisterHistogram("record_confidence", "Confidence score of produced records", ConfidenceBuckets, "valid")
	m.ValidationWarningsTotal = collector.RegisterCounter("validation_warnings_total", "Validation warnings emitted", "rule")
	m.CriteriaModeTotal = collector.RegisterCounter("criteria_mode_total", "Award-criteria extraction outcomes by mode", "mode")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.DBPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DBDurationBuckets, "operation")
	m.IndexedRecords = collector.RegisterCounter("indexed_records_total", "Records written to the search index", "status")

	m.MessagesConsumedTotal = collector.RegisterCounter("mq_messages_consumed_total", "Messages consumed from the event bus", "topic")
	m.MessagesProducedTotal = collector.RegisterCounter("mq_messages_produced_total", "Messages published to the event bus", "topic")
	m.MessagesDeadLetteredTotal = collector.RegisterCounter("mq_messages_dead_lettered_total", "Messages routed to the dead-letter queue", "topic")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "topic")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// RecordHTTPRequest accounts one served request.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordExtraction accounts one finished pipeline run. Status is "ok",
// "invalid" or "failed".
func RecordExtraction(m *AppMetrics, status string, duration time.Duration, lotCount int, strategy string) {
	m.DocumentsProcessedTotal.WithLabelValues(status).Inc()
	m.ExtractionDuration.WithLabelValues(status).Observe(duration.Seconds())
	if lotCount > 0 && strategy != "" {
		m.LotsExtractedTotal.WithLabelValues(strategy).Add(float64(lotCount))
	}
}

// RecordConfidenceScore observes one record's confidence.
func RecordConfidenceScore(m *AppMetrics, confidence float64, valid bool) {
	m.RecordConfidence.WithLabelValues(strconv.FormatBool(valid)).Observe(confidence)
}

// RecordCacheAccess accounts one cache lookup.
func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordDBQuery observes one query and counts its failure, if any.
func RecordDBQuery(m *AppMetrics, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues("postgres", "query_error").Inc()
	}
}

// RecordMessageProcessed accounts one consumed message.
func RecordMessageProcessed(m *AppMetrics, topic string, duration time.Duration, deadLettered bool) {
	m.MessagesConsumedTotal.WithLabelValues(topic).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
	if deadLettered {
		m.MessagesDeadLetteredTotal.WithLabelValues(topic).Inc()
	}
}

// SetComponentHealth reflects a health probe result in the scrape output.
func SetComponentHealth(m *AppMetrics, component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
