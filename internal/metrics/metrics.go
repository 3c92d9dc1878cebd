package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Settlement engine
	RecomputesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_recomputes_total",
			Help: "Total settlement recompute passes",
		},
	)
	SettlementsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlements_emitted_total",
			Help: "Total settlement instructions emitted by recompute",
		},
	)
	SettlementsSettled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlements_marked_settled_total",
			Help: "Total settlements confirmed as paid",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RecomputesTotal)
	prometheus.MustRegister(SettlementsEmitted)
	prometheus.MustRegister(SettlementsSettled)
	prometheus.MustRegister(WorkerQueueDepth)
}
