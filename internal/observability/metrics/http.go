package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	triageTotal    *prometheus.CounterVec
	triageDuration *prometheus.HistogramVec
	anomaliesTotal *prometheus.CounterVec
	alertsTotal    *prometheus.CounterVec
	actionsTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	triageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "inputs_total",
			Help:      "Total triaged inputs by classified format and intent.",
		},
		[]string{"service", "format", "intent"},
	)
	triageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end triage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "format"},
	)
	anomaliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "anomalies_total",
			Help:      "Total extraction anomalies by kind.",
		},
		[]string{"service", "kind"},
	)
	alertsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "rules",
			Name:      "alerts_total",
			Help:      "Total triggered alerts by level.",
		},
		[]string{"service", "level"},
	)
	actionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "rules",
			Name:      "actions_total",
			Help:      "Total executed chain actions by outcome.",
		},
		[]string{"service", "action", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		triageTotal,
		triageDuration,
		anomaliesTotal,
		alertsTotal,
		actionsTotal,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		triageTotal:     triageTotal,
		triageDuration:  triageDuration,
		anomaliesTotal:  anomaliesTotal,
		alertsTotal:     alertsTotal,
		actionsTotal:    actionsTotal,
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

func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/conversations/") {
		rest := strings.TrimPrefix(path, "/v1/conversations/")
		if i := strings.Index(rest, "/"); i >= 0 {
			return "/v1/conversations/{conversation_id}" + rest[i:]
		}
		return "/v1/conversations/{conversation_id}"
	}
	return path
}

func (m *HTTPServerMetrics) RecordTriage(service, format, intent string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if intent == "" {
		intent = "unknown"
	}
	m.triageTotal.WithLabelValues(service, format, intent).Inc()
	m.triageDuration.WithLabelValues(service, format).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordAnomaly(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.anomaliesTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordAlert(service, level string) {
	if level == "" {
		level = "unknown"
	}
	m.alertsTotal.WithLabelValues(service, level).Inc()
}

func (m *HTTPServerMetrics) RecordAction(service, action string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.actionsTotal.WithLabelValues(service, action, status).Inc()
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
