// Package metrics holds the Prometheus collectors shared by the relay.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bcrelay_upstream_requests_total",
		Help: "Outbound calls to the identity platform and Business Central, by operation and status code.",
	}, []string{"op", "code"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bcrelay_upstream_request_duration_seconds",
		Help:    "Latency of outbound calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bcrelay_http_requests_total",
		Help: "Inbound HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})

	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bcrelay_pipeline_runs_total",
		Help: "Customer pipeline executions by result (ok or error kind).",
	}, []string{"result"})

	TokenCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bcrelay_token_cache_lookups_total",
		Help: "Token cache lookups by outcome (hit or miss).",
	}, []string{"outcome"})
)

// ObserveUpstream records one outbound call. code 0 means no response was received.
func ObserveUpstream(op string, code int, started time.Time) {
	c := "error"
	if code > 0 {
		c = strconv.Itoa(code)
	}
	UpstreamRequests.WithLabelValues(op, c).Inc()
	UpstreamDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
