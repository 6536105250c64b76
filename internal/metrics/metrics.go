package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for listdash
type Metrics struct {
	// Dashboard exchanges
	SearchRequestsTotal *prometheus.CounterVec
	SearchResultsTotal  *prometheus.CounterVec
	StatsRequestsTotal  prometheus.Counter

	// Task synchronisation
	SyncRunsTotal     prometheus.Counter
	SyncErrorsTotal   prometheus.Counter
	TasksCreatedTotal *prometheus.CounterVec
	TasksRemovedTotal *prometheus.CounterVec

	// Current state
	PendingRequests *prometheus.GaugeVec
	Tasks           *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	HTTPErrorsTotal            *prometheus.CounterVec
	CSRFRejectedTotal          prometheus.Counter
	LoginThrottledTotal        *prometheus.CounterVec

	// System metrics
	UptimeSeconds    prometheus.Gauge
	Goroutines       prometheus.Gauge
	StorageUsedBytes prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listdash_search_requests_total",
				Help: "Total number of global search requests by scope",
			},
			[]string{"scope"},
		),
		SearchResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listdash_search_results_total",
				Help: "Total number of search candidates returned by kind",
			},
			[]string{"kind"},
		),
		StatsRequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listdash_stats_requests_total",
				Help: "Total number of statistics widget requests",
			},
		),

		SyncRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listdash_sync_runs_total",
				Help: "Total number of task synchronisation runs",
			},
		),
		SyncErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listdash_sync_errors_total",
				Help: "Total number of failed task synchronisation runs",
			},
		),
		TasksCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listdash_tasks_created_total",
				Help: "Total number of tasks created",
			},
			[]string{"kind"},
		),
		TasksRemovedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listdash_tasks_removed_total",
				Help: "Total number of tasks removed",
			},
			[]string{"kind"},
		),

		PendingRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "listdash_pending_requests",
				Help: "Number of pending requests reported by the list server",
			},
			[]string{"kind"},
		),
		Tasks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "listdash_tasks",
				Help: "Number of tasks on the dashboard",
			},
			[]string{"kind"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listdash_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "listdash_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listdash_http_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"error_type"},
		),
		CSRFRejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listdash_csrf_rejected_total",
				Help: "Total number of requests rejected for a bad CSRF token",
			},
		),
		LoginThrottledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listdash_login_throttled_total",
				Help: "Total number of dashboard logins refused after repeated failures",
			},
			[]string{"level"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "listdash_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "listdash_goroutines",
				Help: "Number of active goroutines",
			},
		),
		StorageUsedBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "listdash_storage_used_bytes",
				Help: "BoltDB file size in bytes",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.SearchRequestsTotal,
		m.SearchResultsTotal,
		m.StatsRequestsTotal,
		m.SyncRunsTotal,
		m.SyncErrorsTotal,
		m.TasksCreatedTotal,
		m.TasksRemovedTotal,
		m.PendingRequests,
		m.Tasks,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.HTTPErrorsTotal,
		m.CSRFRejectedTotal,
		m.LoginThrottledTotal,
		m.UptimeSeconds,
		m.Goroutines,
		m.StorageUsedBytes,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncSearch counts a search request and its results
func IncSearch(scope string, lists, people, domains int) {
	m := Global()
	if m != nil {
		m.SearchRequestsTotal.WithLabelValues(scope).Inc()
		m.SearchResultsTotal.WithLabelValues("list").Add(float64(lists))
		m.SearchResultsTotal.WithLabelValues("person").Add(float64(people))
		m.SearchResultsTotal.WithLabelValues("domain").Add(float64(domains))
	}
}

// IncStatsRequests increments the statistics request counter
func IncStatsRequests() {
	m := Global()
	if m != nil {
		m.StatsRequestsTotal.Inc()
	}
}

// ObserveSync records the outcome of a synchronisation run
func ObserveSync(err error) {
	m := Global()
	if m != nil {
		m.SyncRunsTotal.Inc()
		if err != nil {
			m.SyncErrorsTotal.Inc()
		}
	}
}

// AddTasksCreated increments the created task counter
func AddTasksCreated(kind string, n int) {
	m := Global()
	if m != nil && n > 0 {
		m.TasksCreatedTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// AddTasksRemoved increments the removed task counter
func AddTasksRemoved(kind string, n int) {
	m := Global()
	if m != nil && n > 0 {
		m.TasksRemovedTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// SetPendingRequests sets the pending request gauge of kind
func SetPendingRequests(kind string, n int) {
	m := Global()
	if m != nil {
		m.PendingRequests.WithLabelValues(kind).Set(float64(n))
	}
}

// SetTasks sets the task gauge of kind
func SetTasks(kind string, n int) {
	m := Global()
	if m != nil {
		m.Tasks.WithLabelValues(kind).Set(float64(n))
	}
}

// IncCSRFRejected increments the CSRF rejection counter
func IncCSRFRejected() {
	m := Global()
	if m != nil {
		m.CSRFRejectedTotal.Inc()
	}
}

// IncLoginThrottled increments the throttled login counter
func IncLoginThrottled(level string) {
	m := Global()
	if m != nil {
		m.LoginThrottledTotal.WithLabelValues(level).Inc()
	}
}
