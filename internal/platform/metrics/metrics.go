package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide HTTP metrics.
type Metrics struct {
	HTTPDuration *prometheus.HistogramVec
}

// New registers metrics on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cipherledger_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"method", "route"}),
	}
}

// ObserveHTTP records a request duration. Call with time.Now() taken at the start.
func (m *Metrics) ObserveHTTP(method, route string, start time.Time) {
	m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
