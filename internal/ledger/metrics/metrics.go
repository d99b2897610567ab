package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
)

// Metrics provides observability for the record ledger.
type Metrics struct {
	RecordsCreated prometheus.Counter

	// Verifications by outcome and error kind ("" when not rejected).
	Verifications *prometheus.CounterVec

	SubmissionsRejected *prometheus.CounterVec

	// AuditFailures counts committed mutations whose event could not be emitted.
	AuditFailures *prometheus.CounterVec
}

// New registers ledger metrics on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RecordsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "cipherledger_records_created_total",
			Help: "Records created on the ledger",
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherledger_verifications_total",
			Help: "Disclosure proof submissions by outcome",
		}, []string{"outcome", "kind"}),
		SubmissionsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherledger_submissions_rejected_total",
			Help: "Record submissions rejected by error kind",
		}, []string{"kind"}),
		AuditFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherledger_audit_emit_failures_total",
			Help: "Committed mutations whose audit event could not be emitted",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncrementRecordsCreated() {
	if m != nil {
		m.RecordsCreated.Inc()
	}
}

func (m *Metrics) IncrementVerification(outcome, kind string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome, kind).Inc()
	}
}

func (m *Metrics) IncrementSubmissionRejected(kind string) {
	if m != nil {
		m.SubmissionsRejected.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementAuditFailure(action string) {
	if m != nil {
		m.AuditFailures.WithLabelValues(action).Inc()
	}
}
