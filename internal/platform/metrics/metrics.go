// Package metrics defines the Prometheus collectors for reservation traffic.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for reservation attempts.
const (
	OutcomeCreated      = "created"
	OutcomeConflict     = "conflict"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeStorageError = "storage_error"
)

// ReservationMetrics records the result and latency of every create attempt.
type ReservationMetrics struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewReservationMetrics registers the collectors on reg.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	m := &ReservationMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "reservation_attempts_total",
			Help:      "Reservation create attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rental",
			Name:      "reservation_create_seconds",
			Help:      "Latency of the reservation create transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.attempts, m.duration)
	return m
}

// Observe records one attempt. A nil receiver is a no-op.
func (m *ReservationMetrics) Observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
