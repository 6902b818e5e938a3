// Package metrics provides Prometheus metrics for the signal drift service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sib"

// registry is the service's own registry so tests and the /metrics endpoint
// see exactly the metrics declared here.
var registry = prometheus.NewRegistry()

// GetRegistry returns the registry backing all service metrics.
func GetRegistry() *prometheus.Registry {
	return registry
}

var (
	signalsIngested = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_ingested_total",
		Help:      "Signal readings successfully stored.",
	})

	ingestRejections = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_rejections_total",
		Help:      "Ingestions rejected before or during storage.",
	}, []string{"reason"})

	anomaliesDetected = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "anomalies_detected_total",
		Help:      "Anomaly records created, by severity.",
	}, []string{"severity"})

	ingestDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_ms",
		Help:      "End-to-end ingestion latency in milliseconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	})

	storeOperationDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_ms",
		Help:      "Store read/write latency in milliseconds, by operation.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	}, []string{"op"})

	httpRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})

	httpRequestDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method", "status"})

	streamMessages = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_messages_total",
		Help:      "Stream messages consumed, by outcome.",
	}, []string{"outcome"})

	agentsTracked = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "agents_tracked",
		Help:      "Agents with at least one stored reading.",
	})

	readingsStored = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readings_stored",
		Help:      "Total readings currently stored.",
	})

	dedupeTracked = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dedupe_tracked_ids",
		Help:      "Event ids currently tracked by the stream deduper.",
	})
)

// Stream message outcomes.
const (
	StreamOK        = "ok"
	StreamDecodeErr = "decode_error"
	StreamDuplicate = "duplicate"
	StreamInvalid   = "invalid"
	StreamFailed    = "failed"
)

// Ingest rejection reasons.
const (
	RejectValidation = "validation"
	RejectStorage    = "storage"
)

func RecordSignalIngested()                 { signalsIngested.Inc() }
func RecordIngestRejection(reason string)   { ingestRejections.WithLabelValues(reason).Inc() }
func RecordAnomalyDetected(severity string) { anomaliesDetected.WithLabelValues(severity).Inc() }
func RecordIngestDuration(ms float64)       { ingestDuration.Observe(ms) }

func RecordStoreOperation(op string, ms float64) {
	storeOperationDuration.WithLabelValues(op).Observe(ms)
}

func RecordHTTPRequest(endpoint, method, status string) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func RecordStreamMessage(outcome string) { streamMessages.WithLabelValues(outcome).Inc() }

func UpdateAgentsTracked(n int)  { agentsTracked.Set(float64(n)) }
func UpdateReadingsStored(n int) { readingsStored.Set(float64(n)) }
func UpdateDedupeTracked(n int)  { dedupeTracked.Set(float64(n)) }
