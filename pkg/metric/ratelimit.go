package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var _ RateLimit = (*rateLimitMetrics)(nil)

type rateLimitMetrics struct {
	admitted    *prometheus.CounterVec
	denied      *prometheus.CounterVec
	trackedKeys prometheus.Gauge
}

func newRateLimitMetrics(registry *promRegistry) *rateLimitMetrics {
	admitted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_admitted_total",
			Help: "Total number of requests admitted by the rate limiter",
		},
		[]string{"route"},
	)

	denied := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_denied_total",
			Help: "Total number of requests denied by the rate limiter",
		},
		[]string{"route"},
	)

	trackedKeys := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratelimit_tracked_keys",
			Help: "Number of (client, route) windows currently tracked",
		},
	)

	registry.registry.MustRegister(admitted, denied, trackedKeys)

	return &rateLimitMetrics{
		admitted:    admitted,
		denied:      denied,
		trackedKeys: trackedKeys,
	}
}

func (m *rateLimitMetrics) Admitted(route string) {
	m.admitted.WithLabelValues(route).Add(1)
}

func (m *rateLimitMetrics) Denied(route string) {
	m.denied.WithLabelValues(route).Add(1)
}

func (m *rateLimitMetrics) TrackedKeys(count int) {
	m.trackedKeys.Set(float64(count))
}
