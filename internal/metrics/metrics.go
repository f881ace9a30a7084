// Package metrics exposes Prometheus collectors for the redirect server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

var (
	redirectsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snip_redirects_served_total",
			Help: "Short link lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	redirectChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snip_redirect_changes_total",
			Help: "Redirects created, updated, deleted or imported",
		},
		[]string{"action"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snip_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"route", "method", "status"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snip_rate_limited_total",
			Help: "Write requests rejected by the per-client limiter",
		},
		[]string{"route"},
	)

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snip_circuit_breaker_state",
			Help: "Client circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// Result labels for RecordRedirect.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Action labels for RecordChange.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// RecordRedirect counts a short link lookup.
func RecordRedirect(result string) {
	redirectsServed.WithLabelValues(result).Inc()
}

// RecordChange counts n redirects affected by action.
func RecordChange(action string, n int) {
	if n <= 0 {
		return
	}
	redirectChanges.WithLabelValues(action).Add(float64(n))
}

// RecordRequest observes one finished HTTP request.
func RecordRequest(route, method string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// RecordRateLimited counts a throttled request.
func RecordRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}

// RecordCircuitBreakerState publishes the state of a client breaker.
func RecordCircuitBreakerState(name string, state gobreaker.State) {
	var value float64
	switch state {
	case gobreaker.StateClosed:
		value = 0
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	circuitBreakerState.WithLabelValues(name).Set(value)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
