package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planexa/exam-planner-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduling
// engine and the HTTP glue around it.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationDuration prometheus.Histogram
	generationTotal    prometheus.Counter
	examsScheduled     prometheus.Counter
	unitsUnscheduled   prometheus.Counter
	conflictsDetected  *prometheus.CounterVec
	budgetExceeded     prometheus.Counter

	dbQueryDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the engine's Prometheus collectors.
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

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "schedule_generation_duration_seconds",
		Help: "Wall-clock duration of one schedule generation pass",
		// The 45s bucket edge matches the soft budget.
		Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 120},
	})

	generationTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_generations_total",
		Help: "Total schedule generation passes",
	})

	examsScheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_exams_scheduled_total",
		Help: "Total exam units successfully placed",
	})

	unitsUnscheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_units_unscheduled_total",
		Help: "Total exam units with no feasible assignment",
	})

	conflictsDetected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflicts_detected_total",
		Help: "Conflicts detected, by kind",
	}, []string{"kind"})

	budgetExceeded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_budget_exceeded_total",
		Help: "Generation passes that overran the soft wall-clock budget",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		generationDuration, generationTotal, examsScheduled, unitsUnscheduled,
		conflictsDetected, budgetExceeded,
		dbQueryDuration, cacheHits, cacheMisses, goroutines,
	)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationDuration: generationDuration,
		generationTotal:    generationTotal,
		examsScheduled:     examsScheduled,
		unitsUnscheduled:   unitsUnscheduled,
		conflictsDetected:  conflictsDetected,
		budgetExceeded:     budgetExceeded,
		dbQueryDuration:    dbQueryDuration,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGeneration records the outcome of one generation pass.
func (m *MetricsService) ObserveGeneration(duration time.Duration, scheduled, unscheduled int, conflicts []models.Conflict, overBudget bool) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(duration.Seconds())
	m.generationTotal.Inc()
	m.examsScheduled.Add(float64(scheduled))
	m.unitsUnscheduled.Add(float64(unscheduled))
	for _, conflict := range conflicts {
		m.conflictsDetected.WithLabelValues(string(conflict.Kind)).Inc()
	}
	if overBudget {
		m.budgetExceeded.Inc()
	}
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordCacheOperation records proposal cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
