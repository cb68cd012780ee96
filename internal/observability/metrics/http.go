package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nlq"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queriesTotal        *prometheus.CounterVec
	queryDuration       *prometheus.HistogramVec
	clarificationsTotal *prometheus.CounterVec
	classifierFailures  *prometheus.CounterVec
	vocabularyRefresh   *prometheus.CounterVec
	vocabularySize      *prometheus.GaugeVec
	unknownTermsTotal   *prometheus.CounterVec
	breakerTransitions  *prometheus.CounterVec
	rateLimitedTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "queries_total",
			Help:      "Understood queries by scope and resolved intent.",
		},
		[]string{"service", "scope", "intent"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Query understanding duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"service", "scope"},
	)
	clarificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "clarifications_total",
			Help:      "Account clarification prompts by kind.",
		},
		[]string{"service", "kind"},
	)
	classifierFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "failures_total",
			Help:      "Classifications that fell back to the unknown intent.",
		},
		[]string{"service", "reason"},
	)
	vocabularyRefresh := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vocabulary",
			Name:      "refresh_total",
			Help:      "Vocabulary refresh attempts by collection and status.",
		},
		[]string{"service", "collection", "status"},
	)
	vocabularySize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vocabulary",
			Name:      "values",
			Help:      "Number of facet values currently cached.",
		},
		[]string{"service", "collection"},
	)
	unknownTermsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unknown_terms",
			Name:      "total",
			Help:      "Unknown terms recorded or dropped by the learning log.",
		},
		[]string{"service", "outcome"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes by operation.",
		},
		[]string{"service", "operation", "to"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"service", "path"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queriesTotal,
		queryDuration,
		clarificationsTotal,
		classifierFailures,
		vocabularyRefresh,
		vocabularySize,
		unknownTermsTotal,
		breakerTransitions,
		rateLimitedTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		queriesTotal:        queriesTotal,
		queryDuration:       queryDuration,
		clarificationsTotal: clarificationsTotal,
		classifierFailures:  classifierFailures,
		vocabularyRefresh:   vocabularyRefresh,
		vocabularySize:      vocabularySize,
		unknownTermsTotal:   unknownTermsTotal,
		breakerTransitions:  breakerTransitions,
		rateLimitedTotal:    rateLimitedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
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

// RecordUnderstanding counts one understood query. kind is the
// clarification kind, empty when none was asked.
func (m *HTTPServerMetrics) RecordUnderstanding(service, scope, intent, kind string, duration time.Duration) {
	if intent == "" {
		intent = "unknown"
	}
	m.queriesTotal.WithLabelValues(service, scope, intent).Inc()
	m.queryDuration.WithLabelValues(service, scope).Observe(duration.Seconds())
	if kind != "" {
		m.clarificationsTotal.WithLabelValues(service, kind).Inc()
	}
}

func (m *HTTPServerMetrics) RecordClassifierFailure(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.classifierFailures.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordVocabularyRefresh(service, collection string, ok bool, size int) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.vocabularyRefresh.WithLabelValues(service, collection, status).Inc()
	m.vocabularySize.WithLabelValues(service, collection).Set(float64(size))
}

func (m *HTTPServerMetrics) RecordUnknownTerms(service, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.unknownTermsTotal.WithLabelValues(service, outcome).Add(float64(n))
}

func (m *HTTPServerMetrics) RecordBreakerTransition(service, operation, to string) {
	m.breakerTransitions.WithLabelValues(service, operation, to).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimited(service, path string) {
	m.rateLimitedTotal.WithLabelValues(service, path).Inc()
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

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
