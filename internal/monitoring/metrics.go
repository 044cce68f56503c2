// Package monitoring defines the Prometheus metrics exported by the
// server. Metrics are registered through promauto and exposed on
// /metrics by the router.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_attempts_total",
			Help: "Reservation attempts by result",
		},
		[]string{"result"},
	)

	settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement deliveries by outcome and whether they applied",
		},
		[]string{"outcome", "applied"},
	)

	bookingsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_expired_total",
			Help: "PENDING bookings expired by the sweep",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expiry_sweep_duration_seconds",
			Help:    "Duration of expiry sweep runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// ReservationAttempt counts one reservation attempt with the given
// result: ok, conflict, not_found or error.
func ReservationAttempt(result string) {
	reservationAttempts.WithLabelValues(result).Inc()
}

// Settlement counts one settlement delivery.
func Settlement(outcome string, applied bool) {
	settlements.WithLabelValues(outcome, strconv.FormatBool(applied)).Inc()
}

// BookingsExpired adds n to the expiry counter.
func BookingsExpired(n int) {
	bookingsExpired.Add(float64(n))
}

// SweepObserved records the duration of one sweep run.
func SweepObserved(d time.Duration) {
	sweepDuration.Observe(d.Seconds())
}
