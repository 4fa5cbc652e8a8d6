package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecoveryMetrics holds the Prometheus instrumentation for the execution
// core. A nil *RecoveryMetrics is valid and records nothing, which keeps the
// engine usable in tests without a registry.
type RecoveryMetrics struct {
	executionsTotal  *prometheus.CounterVec
	recoveryDuration *prometheus.HistogramVec
	stepsTotal       *prometheus.CounterVec
	stepDuration     prometheus.Histogram
	rollbacksTotal   *prometheus.CounterVec
	validationIssues prometheus.Counter
}

// NewRecoveryMetrics creates and registers the recovery metrics
func NewRecoveryMetrics(registerer prometheus.Registerer) *RecoveryMetrics {
	m := &RecoveryMetrics{
		executionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_recovery",
			Name:      "executions_total",
			Help:      "Recovery executions by terminal status",
		}, []string{"status"}),
		recoveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "disaster_recovery",
			Name:      "execution_duration_seconds",
			Help:      "End-to-end recovery execution duration",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"status"}),
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_recovery",
			Name:      "steps_total",
			Help:      "Executed recovery steps by outcome",
		}, []string{"status"}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_recovery",
			Name:      "step_duration_seconds",
			Help:      "Individual step execution duration",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		rollbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_recovery",
			Name:      "rollbacks_total",
			Help:      "Rollback attempts by outcome",
		}, []string{"outcome"}),
		validationIssues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_recovery",
			Name:      "validation_issues_total",
			Help:      "Completion validation issues recorded",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.executionsTotal,
			m.recoveryDuration,
			m.stepsTotal,
			m.stepDuration,
			m.rollbacksTotal,
			m.validationIssues,
		)
	}
	return m
}

// ObserveExecution records a finished execution
func (m *RecoveryMetrics) ObserveExecution(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.executionsTotal.WithLabelValues(status).Inc()
	m.recoveryDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveStep records a finished step attempt
func (m *RecoveryMetrics) ObserveStep(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(status).Inc()
	m.stepDuration.Observe(duration.Seconds())
}

// ObserveRollback records a rollback attempt
func (m *RecoveryMetrics) ObserveRollback(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.rollbacksTotal.WithLabelValues(outcome).Inc()
}

// AddValidationIssues records completion validation issues
func (m *RecoveryMetrics) AddValidationIssues(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.validationIssues.Add(float64(count))
}
