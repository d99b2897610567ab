package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
)

// Metrics provides observability for client workflows.
type Metrics struct {
	// Workflows by workflow name, outcome and error kind ("" on success).
	Workflows *prometheus.CounterVec

	WorkflowDuration *prometheus.HistogramVec

	// Retries by workflow step.
	Retries *prometheus.CounterVec

	// InFlight counts workflows currently running.
	InFlight prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Workflows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherledger_workflows_total",
			Help: "Client workflows by outcome",
		}, []string{"workflow", "outcome", "kind"}),
		WorkflowDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cipherledger_workflow_duration_seconds",
			Help:    "Client workflow duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"workflow"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherledger_workflow_retries_total",
			Help: "Transient failures retried by workflow step",
		}, []string{"step"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "cipherledger_workflows_in_flight",
			Help: "Client workflows currently running",
		}),
	}
}

func (m *Metrics) ObserveWorkflow(workflow, outcome, kind string, start time.Time) {
	if m == nil {
		return
	}
	m.Workflows.WithLabelValues(workflow, outcome, kind).Inc()
	m.WorkflowDuration.WithLabelValues(workflow).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementRetry(step string) {
	if m != nil {
		m.Retries.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncrementInFlight() {
	if m != nil {
		m.InFlight.Inc()
	}
}

func (m *Metrics) DecrementInFlight() {
	if m != nil {
		m.InFlight.Dec()
	}
}
