package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_cycles_total", Help: "Trading cycles by result"},
		[]string{"result"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_trades_total", Help: "Contracts bought by direction"},
		[]string{"direction"},
	)
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_step_duration_seconds",
			Help:    "Duration of each cycle step",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"step"},
	)
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "deriv_requests_total", Help: "Requests sent over the socket by message type and result"},
		[]string{"msg_type", "result"},
	)
	PendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "deriv_pending_requests", Help: "Requests awaiting a response"},
	)
	ExpiredRequests = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "deriv_expired_requests_total", Help: "Requests dropped after their deadline"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, TradesTotal, StepDuration, RequestsTotal, PendingRequests, ExpiredRequests)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
