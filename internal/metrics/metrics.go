// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the chat pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RepliesTotal counts produced bot replies by reply kind.
	RepliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopmate_chat_replies_total",
		Help: "Bot replies produced, labeled by reply kind.",
	}, []string{"kind"})

	// RequestDuration observes HTTP request latency by route and method.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopmate_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Handler returns the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
