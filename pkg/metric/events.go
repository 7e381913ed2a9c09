package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Events = (*eventsMetrics)(nil)

type eventsMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newEventsMetrics(registry *promRegistry) *eventsMetrics {
	published := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the broker",
		},
		[]string{"topic"},
	)

	failed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_publish_failures_total",
			Help: "Total number of failed event publishes",
		},
		[]string{"topic", "reason"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "events_publish_duration_seconds",
			Help:    "Event publish duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
		},
		[]string{"topic"},
	)

	registry.registry.MustRegister(published, failed, duration)

	return &eventsMetrics{
		published: published,
		failed:    failed,
		duration:  duration,
	}
}

func (m *eventsMetrics) Published(topic string) {
	m.published.WithLabelValues(topic).Add(1)
}

func (m *eventsMetrics) PublishFailed(topic string, reason string) {
	m.failed.WithLabelValues(topic, reason).Add(1)
}

func (m *eventsMetrics) ObservePublishDuration(topic string, duration time.Duration) {
	m.duration.WithLabelValues(topic).Observe(duration.Seconds())
}
