// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Rounds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hazz2_rounds_total",
			Help: "Rounds completed, by outcome (finished, forced, aborted)",
		},
		[]string{"outcome"},
	)
	Actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hazz2_actions_total",
			Help: "Actions applied to a round, by kind",
		},
		[]string{"kind"},
	)
	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hazz2_rejections_total",
			Help: "Submissions rejected, by reject code",
		},
		[]string{"code"},
	)
	RoundTurns = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hazz2_round_turns",
			Help:    "Turns taken per completed round",
			Buckets: []float64{10, 25, 50, 100, 200, 350, 500},
		},
	)
	SessionRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hazz2_session_running",
			Help: "1 while a session is running",
		},
	)
	Connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hazz2_connections",
			Help: "Participant connections currently registered",
		},
	)
)

func init() {
	prometheus.MustRegister(Rounds)
	prometheus.MustRegister(Actions)
	prometheus.MustRegister(Rejections)
	prometheus.MustRegister(RoundTurns)
	prometheus.MustRegister(SessionRunning)
	prometheus.MustRegister(Connections)
}
