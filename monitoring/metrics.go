package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"status"},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Payment notification reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	fallbackMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciliation_fallback_matches_total",
			Help: "Reconciliations matched by buyer+event instead of session reference",
		},
	)

	verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_verifications_total",
			Help: "Check-in verifications by result",
		},
		[]string{"result"},
	)

	payouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_sweeps_total",
			Help: "Payout sweep decisions",
		},
		[]string{"decision"},
	)

	expiredReservations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_reservations_total",
			Help: "Pending reservations swept back to inventory",
		},
	)
)

func TrackReservation(status string)     { reservations.WithLabelValues(status).Inc() }
func TrackReconciliation(outcome string) { reconciliations.WithLabelValues(outcome).Inc() }
func TrackFallbackMatch()                { fallbackMatches.Inc() }
func TrackVerification(result string)    { verifications.WithLabelValues(result).Inc() }
func TrackPayout(decision string)        { payouts.WithLabelValues(decision).Inc() }
func TrackExpiredReservation()           { expiredReservations.Inc() }
