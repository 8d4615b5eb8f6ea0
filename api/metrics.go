package api

import "github.com/prometheus/client_golang/prometheus"

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "minisocial",
	Subsystem: "api",
	Name:      "requests_total",
	Help:      "Backend REST requests by method and response code.",
}, []string{"method", "code"})

func init() {
	prometheus.MustRegister(requestsTotal)
}
