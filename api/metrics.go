/*
metrics.go - Prometheus counters for the sale lifecycle

PURPOSE:
  Counts the operations an operator cares about reconciling at the end of
  the day: sales committed (by kind and method), sales reversed, payments
  reversed, and partial commits that left an inconsistent record behind.
  The partial counter is the one worth alerting on.

EXPOSURE:
  promhttp at /metrics, wired in server.go.
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	salesFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_finalized_total",
		Help: "Sales fully committed, by sale kind and payment method.",
	}, []string{"kind", "method"})

	salesPartial = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_partial_commits_total",
		Help: "Finalizations that failed after the sale record was written.",
	})

	salesReversed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_reversed_total",
		Help: "Sales deleted with stock restored.",
	})

	paymentsReversed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_payments_reversed_total",
		Help: "Individual payments deleted from committed sales.",
	})

	reservationStatusStale = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_reservation_status_stale_total",
		Help: "Payment reversals where the reservation paid flag could not be rewritten.",
	})
)
