// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LoginsTotal counts login attempts by outcome ("success" or "failure").
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total login attempts",
		},
		[]string{"outcome"},
	)

	// ArticlesCreated counts created articles by initial status.
	ArticlesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_created_total",
			Help: "Total articles created",
		},
		[]string{"status"},
	)

	// ArticlesApproved counts articles reaching the approved status.
	ArticlesApproved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_approved_total",
			Help: "Total articles moved to approved",
		},
	)

	// HTTPLatency measures request latency by method, route pattern, and status.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Init registers all collectors; call once at startup.
func Init() {
	prometheus.MustRegister(LoginsTotal)
	prometheus.MustRegister(ArticlesCreated)
	prometheus.MustRegister(ArticlesApproved)
	prometheus.MustRegister(HTTPLatency)
}
