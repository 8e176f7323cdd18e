// Package metrics exposes Prometheus collectors for the completion relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Relay struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewRelay registers the relay collectors with reg.
func NewRelay(reg prometheus.Registerer) *Relay {
	m := &Relay{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caonline",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Completion relay requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "caonline",
			Subsystem: "relay",
			Name:      "duration_seconds",
			Help:      "Time spent handling completion relay requests.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Observe is a no-op on a nil *Relay.
func (m *Relay) Observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}
