package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raffle_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	Reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_reservations_total",
			Help: "Reservation attempts by result",
		},
		[]string{"result"},
	)

	Settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_settlements_total",
			Help: "Settlement events by provider, outcome and result",
		},
		[]string{"provider", "outcome", "result"},
	)

	SweeperRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_sweeper_runs_total",
			Help: "Sweeper runs by result",
		},
		[]string{"result"},
	)

	SweeperItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_sweeper_items_total",
			Help: "Items handled by the sweeper",
		},
		[]string{"action"},
	)
)
