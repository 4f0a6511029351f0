package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API surface
// and the generation pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	runGenerations prometheus.Histogram
	hardViolations prometheus.Gauge
	unscheduled    prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_runs_total",
		Help: "Total generation runs by terminal status",
	}, []string{"status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_run_duration_seconds",
		Help:    "Wall-clock duration of generation runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	runGenerations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_run_generations",
		Help:    "GA generations completed per run",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000},
	})

	hardViolations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_last_run_hard_violations",
		Help: "Hard violations in the best chromosome of the last run",
	})

	unscheduled := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_last_run_unscheduled",
		Help: "Requirements left unscheduled by the last run",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, runsTotal, runDuration, runGenerations, hardViolations, unscheduled, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		runGenerations:  runGenerations,
		hardViolations:  hardViolations,
		unscheduled:     unscheduled,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"method": method, "path": path, "status": httpStatusLabel(status)}
	m.requestDuration.With(labels).Observe(duration.Seconds())
	m.requestTotal.With(labels).Inc()
}

// ObserveRun records the terminal state of one generation run.
func (m *MetricsService) ObserveRun(status string, duration time.Duration, generations, hardViolations, unscheduled int) {
	if m == nil {
		return
	}
	m.runsTotal.With(prometheus.Labels{"status": status}).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.runGenerations.Observe(float64(generations))
	m.hardViolations.Set(float64(hardViolations))
	m.unscheduled.Set(float64(unscheduled))
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
