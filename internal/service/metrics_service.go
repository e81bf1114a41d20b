package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a lightweight summary of the console's runtime counters.
type MetricsSnapshot struct {
	RequestsTotal             uint64    `json:"requestsTotal"`
	AverageRequestDurationMs  float64   `json:"averageRequestDurationMs"`
	UpstreamCalls             uint64    `json:"upstreamCalls"`
	UpstreamFailures          uint64    `json:"upstreamFailures"`
	AverageUpstreamDurationMs float64   `json:"averageUpstreamDurationMs"`
	StaleResponsesDiscarded   uint64    `json:"staleResponsesDiscarded"`
	SessionInvalidations      uint64    `json:"sessionInvalidations"`
	ActiveWorkspaces          int64     `json:"activeWorkspaces"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	listFetches      *prometheus.CounterVec
	listDuration     *prometheus.HistogramVec
	formSubmits      *prometheus.CounterVec
	invalidations    *prometheus.CounterVec
	workspaces       prometheus.Gauge

	requestCount          uint64
	requestDurationTotal  uint64
	upstreamCount         uint64
	upstreamFailures      uint64
	upstreamDurationTotal uint64
	staleCount            uint64
	invalidationCount     uint64
	workspaceCount        int64
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

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vacation_api_request_duration_seconds",
		Help:    "Duration of calls to the vacation API",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	listFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "list_fetches_total",
		Help: "List screen fetches by outcome",
	}, []string{"screen", "outcome"})

	listDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "list_fetch_duration_seconds",
		Help:    "Duration of list screen fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"screen"})

	formSubmits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vacation_form_submissions_total",
		Help: "Vacation form submissions by outcome",
	}, []string{"outcome"})

	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_invalidations_total",
		Help: "Sessions invalidated by reason",
	}, []string{"reason"})

	workspaces := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_workspaces",
		Help: "Number of live session workspaces",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, listFetches, listDuration, formSubmits, invalidations, workspaces, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		listFetches:      listFetches,
		listDuration:     listDuration,
		formSubmits:      formSubmits,
		invalidations:    invalidations,
		workspaces:       workspaces,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveUpstreamCall records a vacation API call. Status 0 is a transport failure.
func (m *MetricsService) ObserveUpstreamCall(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.upstreamCount, 1)
	atomic.AddUint64(&m.upstreamDurationTotal, uint64(duration.Nanoseconds()))
	if status == 0 || status >= http.StatusInternalServerError {
		atomic.AddUint64(&m.upstreamFailures, 1)
	}
}

// ObserveListFetch records a list fetch and whether its response was applied.
func (m *MetricsService) ObserveListFetch(screen, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.listFetches.WithLabelValues(screen, outcome).Inc()
	m.listDuration.WithLabelValues(screen).Observe(duration.Seconds())
	if outcome == FetchOutcomeStale {
		atomic.AddUint64(&m.staleCount, 1)
	}
}

// ObserveFormSubmit counts vacation form submissions.
func (m *MetricsService) ObserveFormSubmit(outcome string) {
	if m == nil {
		return
	}
	m.formSubmits.WithLabelValues(outcome).Inc()
}

// RecordSessionInvalidation counts a forced sign-out.
func (m *MetricsService) RecordSessionInvalidation(reason string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(reason).Inc()
	atomic.AddUint64(&m.invalidationCount, 1)
}

// SetActiveWorkspaces updates the live workspace gauge.
func (m *MetricsService) SetActiveWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
	atomic.StoreInt64(&m.workspaceCount, int64(n))
}

// Snapshot returns aggregated metrics suitable for the summary endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	upstream := atomic.LoadUint64(&m.upstreamCount)
	upDuration := atomic.LoadUint64(&m.upstreamDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgUpstreamMs float64
	if upstream > 0 {
		avgUpstreamMs = float64(upDuration) / float64(upstream) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:             requests,
		AverageRequestDurationMs:  avgRequestMs,
		UpstreamCalls:             upstream,
		UpstreamFailures:          atomic.LoadUint64(&m.upstreamFailures),
		AverageUpstreamDurationMs: avgUpstreamMs,
		StaleResponsesDiscarded:   atomic.LoadUint64(&m.staleCount),
		SessionInvalidations:      atomic.LoadUint64(&m.invalidationCount),
		ActiveWorkspaces:          atomic.LoadInt64(&m.workspaceCount),
		Goroutines:                runtime.NumGoroutine(),
		GeneratedAt:               time.Now().UTC(),
	}
}
