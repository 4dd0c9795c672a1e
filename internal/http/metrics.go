package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entriesAdded    prometheus.Counter
	importedRows    *prometheus.CounterVec
	warningsServed  prometheus.Counter
}

// NewMetrics registers the HTTP and domain collectors on reg, together with
// the Go runtime and process collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pintlog_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pintlog_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		entriesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pintlog_consumption_entries_total",
			Help: "Consumption entries added through the API",
		}),
		importedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pintlog_import_rows_total",
			Help: "CSV rows processed by imports",
		}, []string{"result"}),
		warningsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pintlog_binge_warnings_total",
			Help: "Binge warnings included in stats responses",
		}),
	}
	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.entriesAdded,
		m.importedRows,
		m.warningsServed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *Metrics) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) IncEntriesAdded() {
	m.entriesAdded.Inc()
}

func (m *Metrics) AddImportedRows(imported, rejected int) {
	m.importedRows.WithLabelValues("imported").Add(float64(imported))
	m.importedRows.WithLabelValues("rejected").Add(float64(rejected))
}

func (m *Metrics) AddWarningsServed(n int) {
	m.warningsServed.Add(float64(n))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// MetricsMiddleware labels requests by their chi route pattern so path
// parameters do not create new series.
func MetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			endpoint := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}
			metrics.IncRequestsTotal(endpoint, recorder.statusCode())
			metrics.ObserveRequestDuration(endpoint, time.Since(start))
		})
	}
}
