package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected    *prometheus.CounterVec
	StoreErrors prometheus.Counter
}

// New registers rate limit metrics on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherledger_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"class", "subject"}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "cipherledger_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed open because the bucket store errored",
		}),
	}
}

// IncrementRejected counts a denial; subject is "caller" or "ip".
func (m *Metrics) IncrementRejected(class, subject string) {
	if m != nil {
		m.Rejected.WithLabelValues(class, subject).Inc()
	}
}

func (m *Metrics) IncrementStoreErrors() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}
