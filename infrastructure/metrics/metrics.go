// Package metrics provides Prometheus metrics collection
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/R3E-Network/aivcs/infrastructure/runtime"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Run ledger metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	RunsActive      prometheus.Gauge

	// Release registry metrics
	ReleasesTotal *prometheus.CounterVec

	// CI / publish gate metrics
	GateEvaluationsTotal *prometheus.CounterVec

	// Recovery engine metrics
	RecoveryActionsTotal *prometheus.CounterVec

	// Role dispatch metrics
	RoleDispatchTotal    *prometheus.CounterVec
	RoleDispatchDuration *prometheus.HistogramVec

	// Service health
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP metrics
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		// Error metrics
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		// Run ledger metrics
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runs_total",
				Help: "Total number of agent runs by terminal outcome",
			},
			[]string{"service", "outcome"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "run_duration_seconds",
				Help:    "Agent run duration in seconds, from creation to terminal state",
				Buckets: []float64{.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"service", "outcome"},
		),
		RunsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "runs_active",
				Help: "Current number of runs in the Running state",
			},
		),

		// Release registry metrics
		ReleasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "releases_total",
				Help: "Total number of release registry operations",
			},
			[]string{"service", "action", "status"},
		),

		// CI / publish gate metrics
		GateEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_evaluations_total",
				Help: "Total number of CI/publish gate evaluations",
			},
			[]string{"service", "gate", "verdict"},
		),

		// Recovery engine metrics
		RecoveryActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recovery_actions_total",
				Help: "Total number of self-healing recovery actions taken",
			},
			[]string{"service", "action", "status"},
		),

		// Role dispatch metrics
		RoleDispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "role_dispatch_total",
				Help: "Total number of role dispatch invocations",
			},
			[]string{"service", "role", "status"},
		),
		RoleDispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "role_dispatch_duration_seconds",
				Help:    "Role dispatch duration in seconds",
				Buckets: []float64{.05, .1, .5, 1, 2, 5, 10, 30},
			},
			[]string{"service", "role"},
		),

		// Service health
		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	// Register all collectors
	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.ErrorsTotal,
			m.RunsTotal,
			m.RunDuration,
			m.RunsActive,
			m.ReleasesTotal,
			m.GateEvaluationsTotal,
			m.RecoveryActionsTotal,
			m.RoleDispatchTotal,
			m.RoleDispatchDuration,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	// Set service info
	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", getEnvironment()).Set(1)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.RequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordError records an error
func (m *Metrics) RecordError(service, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(service, errorType, operation).Inc()
}

// RecordRunTerminal records a run reaching a terminal state (completed/failed/cancelled).
func (m *Metrics) RecordRunTerminal(service, outcome string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(service, outcome).Inc()
	m.RunDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

// SetActiveRuns sets the current count of runs in the Running state.
func (m *Metrics) SetActiveRuns(count int) {
	m.RunsActive.Set(float64(count))
}

// RecordReleaseAction records a promote/rollback action against the release registry.
func (m *Metrics) RecordReleaseAction(service, action, status string) {
	m.ReleasesTotal.WithLabelValues(service, action, status).Inc()
}

// RecordGateEvaluation records a CI-gate or publish-gate verdict.
func (m *Metrics) RecordGateEvaluation(service, gate, verdict string) {
	m.GateEvaluationsTotal.WithLabelValues(service, gate, verdict).Inc()
}

// RecordRecoveryAction records a self-healing recovery action and its outcome.
func (m *Metrics) RecordRecoveryAction(service, action, status string) {
	m.RecoveryActionsTotal.WithLabelValues(service, action, status).Inc()
}

// RecordRoleDispatch records a role dispatch invocation.
func (m *Metrics) RecordRoleDispatch(service, role, status string, duration time.Duration) {
	m.RoleDispatchTotal.WithLabelValues(service, role, status).Inc()
	m.RoleDispatchDuration.WithLabelValues(service, role).Observe(duration.Seconds())
}

// UpdateUptime updates the service uptime
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

// IncrementInFlight increments the in-flight requests counter
func (m *Metrics) IncrementInFlight() {
	m.RequestsInFlight.Inc()
}

// DecrementInFlight decrements the in-flight requests counter
func (m *Metrics) DecrementInFlight() {
	m.RequestsInFlight.Dec()
}

// Helper functions

func getEnvironment() string {
	return string(runtime.Env())
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !runtime.IsProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
