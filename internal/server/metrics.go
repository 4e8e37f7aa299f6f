package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TraceResponseWriter records the status code and body size of a response.
type TraceResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (w *TraceResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *TraceResponseWriter) Write(data []byte) (int, error) {
	size, err := w.ResponseWriter.Write(data)
	w.size += size
	return size, err
}

type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
	ErrorRate           *prometheus.CounterVec
}

func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "http request duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"status", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "http response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 2, 12),
			},
			[]string{"status", "path"},
		),
		ErrorRate: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "error_rate",
				Help:      "number of errors, sorted by label/type",
			},
			[]string{"error"},
		),
	}
	if registerer != nil {
		registerer.MustRegister(m.HTTPRequestDuration, m.HTTPResponseSize, m.ErrorRate)
	}
	return m
}

func (m *Metrics) RecordError(label string) {
	if m != nil {
		m.ErrorRate.With(prometheus.Labels{"error": label}).Inc()
	}
}

// HandleWithMetricsCustomTimer labels observations with the route rather than
// the request path so chart names and query strings do not add series.
func (m *Metrics) HandleWithMetricsCustomTimer(route string, h http.HandlerFunc, timeSince func(time.Time) time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			h(w, r)
			return
		}
		t := time.Now()
		// WriteHeader is not called for implicit 200 responses
		trw := &TraceResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		h(trw, r)
		latency := timeSince(t)
		labels := prometheus.Labels{"status": strconv.Itoa(trw.statusCode), "path": route}
		m.HTTPRequestDuration.With(labels).Observe(latency.Seconds())
		m.HTTPResponseSize.With(labels).Observe(float64(trw.size))
	}
}

func (m *Metrics) HandleWithMetrics(route string, h http.HandlerFunc) http.HandlerFunc {
	return m.HandleWithMetricsCustomTimer(route, h, time.Since)
}
