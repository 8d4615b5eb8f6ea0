package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	openChannels = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "minisocial_ws_open_channels",
		Help: "Number of live messaging channels",
	})

	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minisocial_ws_events_total",
		Help: "Channel events received, by type",
	}, []string{"type"})

	reconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minisocial_ws_reconcile_total",
		Help: "Reconcile outcomes",
	}, []string{"outcome"})

	sendsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minisocial_ws_sends_total",
		Help: "Messages sent, by transport",
	}, []string{"transport"})
)

// Transports for sendsTotal.
const (
	transportChannel = "channel"
	transportREST    = "rest"
	transportUpload  = "upload"
)

func init() {
	prometheus.MustRegister(openChannels, eventsTotal, reconcileTotal, sendsTotal)
}
