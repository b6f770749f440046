// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrsystem_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lrsystem_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrsystem_provider_calls_total",
			Help: "Text generation calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	providerLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lrsystem_provider_latency_seconds",
			Help:    "Text generation latency by provider.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	retryAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lrsystem_retry_attempts",
			Help:    "Attempts used per orchestrated request.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
		[]string{"op", "outcome"},
	)

	actionsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrsystem_actions_executed_total",
			Help: "Dispatched actions by category, action and status code.",
		},
		[]string{"category", "action", "status"},
	)

	fuzzyResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrsystem_filter_resolutions_total",
			Help: "Filter resolutions by path and outcome.",
		},
		[]string{"path", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		providerCallsTotal,
		providerLatencySeconds,
		retryAttempts,
		actionsExecutedTotal,
		fuzzyResolutionsTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

func ObserveProviderCall(provider string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCallsTotal.WithLabelValues(provider, outcome).Inc()
	providerLatencySeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func ObserveRetry(op string, attempts int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "exhausted"
	}
	retryAttempts.WithLabelValues(op, outcome).Observe(float64(attempts))
}

func ObserveAction(category, action string, status int) {
	actionsExecutedTotal.WithLabelValues(category, action, statusLabel(status)).Inc()
}

// ObserveResolution counts filter resolutions; path is "direct",
// "correction" or "relation".
func ObserveResolution(path string, matched bool) {
	outcome := "matched"
	if !matched {
		outcome = "unmatched"
	}
	fuzzyResolutionsTotal.WithLabelValues(path, outcome).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 200 && code < 300:
		return "2xx"
	}
	return "other"
}
