package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	analysisTotal        *prometheus.CounterVec
	analysisDuration     *prometheus.HistogramVec
	analysisFailureTotal *prometheus.CounterVec
	classifyRetryTotal   *prometheus.CounterVec
	confidence           *prometheus.HistogramVec
	probeTotal           *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafsense",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leafsense",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leafsense",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafsense",
			Subsystem: "classify",
			Name:      "analyses_total",
			Help:      "Total completed analyses by resolved outcome.",
		},
		[]string{"service", "outcome"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leafsense",
			Subsystem: "classify",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	analysisFailureTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafsense",
			Subsystem: "classify",
			Name:      "failures_total",
			Help:      "Total failed analyses by failure kind.",
		},
		[]string{"service", "kind"},
	)
	classifyRetryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafsense",
			Subsystem: "classify",
			Name:      "retries_total",
			Help:      "Total retried upstream calls by operation.",
		},
		[]string{"service", "operation"},
	)
	confidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leafsense",
			Subsystem: "classify",
			Name:      "confidence",
			Help:      "Distribution of reported confidences per axis.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.98, 1},
		},
		[]string{"service", "axis"},
	)
	probeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafsense",
			Subsystem: "classify",
			Name:      "probes_total",
			Help:      "Total upstream availability probes by observed state.",
		},
		[]string{"service", "state"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		analysisTotal,
		analysisDuration,
		analysisFailureTotal,
		classifyRetryTotal,
		confidence,
		probeTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		analysisTotal:        analysisTotal,
		analysisDuration:     analysisDuration,
		analysisFailureTotal: analysisFailureTotal,
		classifyRetryTotal:   classifyRetryTotal,
		confidence:           confidence,
		probeTotal:           probeTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded: only routes the server
// actually serves appear as-is, everything else collapses.
func normalizePath(path string) string {
	switch path {
	case "/v1/analyses", "/v1/analyses/export", "/v1/status", "/v1/metadata/classes", "/healthz", "/metrics":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordAnalysis(service, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.analysisTotal.WithLabelValues(service, outcome).Inc()
	m.analysisDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordAnalysisFailure(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.analysisFailureTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordClassifyRetry(service, operation string) {
	if operation == "" {
		operation = "unknown"
	}
	m.classifyRetryTotal.WithLabelValues(service, operation).Inc()
}

func (m *HTTPServerMetrics) RecordConfidence(service, axis string, value float64) {
	if value < 0 || value > 1 {
		return
	}
	m.confidence.WithLabelValues(service, axis).Observe(value)
}

func (m *HTTPServerMetrics) RecordProbe(service, state string) {
	if state == "" {
		state = "unknown"
	}
	m.probeTotal.WithLabelValues(service, state).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
