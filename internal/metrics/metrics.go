// Package metrics holds Prometheus instruments for the dev server.  All
// collectors are registered with the global registry, so importing this
// package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vellum_rebuilds_total",
			Help: "Cumulative number of successful site rebuilds.",
		})

	RebuildErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vellum_rebuild_errors_total",
			Help: "Cumulative number of failed site rebuilds.",
		})

	RebuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vellum_rebuild_seconds",
			Help:    "Site rebuild duration in seconds.",
			Buckets: prometheus.DefBuckets,
		})

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vellum_http_requests_total",
			Help: "HTTP requests served from the build directory.",
		}, []string{"code"})
)

func init() {
	prometheus.MustRegister(
		RebuildsTotal,
		RebuildErrorsTotal,
		RebuildSeconds,
		RequestsTotal,
	)
}
