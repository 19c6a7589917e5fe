package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bulk run outcomes used as metric labels.
const (
	BulkOutcomeCompleted   = "completed"
	BulkOutcomeInterrupted = "interrupted"
	BulkOutcomeLocked      = "locked"
	BulkOutcomeRejected    = "rejected"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and matching.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	bulkRuns        *prometheus.CounterVec
	bulkDuration    prometheus.Histogram
	assignments     prometheus.Counter
	commitFailures  prometheus.Counter
	rankings        prometheus.Counter
	rankedPeers     prometheus.Histogram
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

	bulkRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_match_runs_total",
		Help: "Bulk match runs by outcome",
	}, []string{"outcome"})

	bulkDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bulk_match_duration_seconds",
		Help:    "Wall time of bulk match passes",
		Buckets: prometheus.DefBuckets,
	})

	assignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulk_match_assignments_total",
		Help: "Sessions committed by bulk match",
	})

	commitFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulk_match_commit_failures_total",
		Help: "Edges skipped because the session could not be stored",
	})

	rankings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "candidate_rankings_total",
		Help: "Candidate ranking requests served",
	})

	rankedPeers := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "candidate_ranking_pool_size",
		Help:    "Number of peers scored per ranking request",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, bulkRuns, bulkDuration, assignments, commitFailures, rankings, rankedPeers, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		bulkRuns:        bulkRuns,
		bulkDuration:    bulkDuration,
		assignments:     assignments,
		commitFailures:  commitFailures,
		rankings:        rankings,
		rankedPeers:     rankedPeers,
	}
}

// Registry exposes the underlying registry for tests and embedding.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordBulkRun records the outcome of one bulk match pass.
func (m *MetricsService) RecordBulkRun(outcome string, created, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.bulkRuns.WithLabelValues(outcome).Inc()
	if outcome == BulkOutcomeCompleted || outcome == BulkOutcomeInterrupted {
		m.bulkDuration.Observe(duration.Seconds())
		m.assignments.Add(float64(created))
		m.commitFailures.Add(float64(failed))
	}
}

// RecordRanking records one candidate ranking over pool peers.
func (m *MetricsService) RecordRanking(pool int) {
	if m == nil {
		return
	}
	m.rankings.Inc()
	m.rankedPeers.Observe(float64(pool))
}
