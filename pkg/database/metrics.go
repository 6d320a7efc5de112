package database

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/event"
)

var (
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of catalog store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"system", "operation", "outcome"},
	)

	poolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "Number of open connections in the driver pool",
		},
		[]string{"service"},
	)

	poolCheckedOut = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_checked_out_connections",
			Help: "Number of connections currently checked out of the driver pool",
		},
		[]string{"service"},
	)

	poolCheckoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_pool_checkout_failures_total",
			Help: "Total number of failed connection checkouts",
		},
		[]string{"service"},
	)
)

// observeQuery records the duration of one store operation.
func observeQuery(system, operation string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queryDuration.WithLabelValues(system, operation, outcome).Observe(elapsed.Seconds())
}

// NewPoolMonitor returns a MongoDB pool monitor that exports connection pool
// activity as Prometheus metrics labelled with the service name.
func NewPoolMonitor(service string) *event.PoolMonitor {
	open := poolConnections.WithLabelValues(service)
	checkedOut := poolCheckedOut.WithLabelValues(service)
	failures := poolCheckoutFailures.WithLabelValues(service)

	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch e.Type {
			case event.ConnectionCreated:
				open.Inc()
			case event.ConnectionClosed:
				open.Dec()
			case event.GetSucceeded:
				checkedOut.Inc()
			case event.ConnectionReturned:
				checkedOut.Dec()
			case event.GetFailed:
				failures.Inc()
			}
		},
	}
}
