// Package metrics provides Prometheus metrics for gateway traffic and
// navigation decisions.
//
// All Record methods are safe on a nil *Metrics, so components can take an
// optional instance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bulletin"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	// GatewayRequests counts collection gateway calls.
	// Labels: collection, op (select|insert|update|delete), result (ok|error).
	GatewayRequests *prometheus.CounterVec

	// GatewayDuration observes collection gateway call latency in seconds.
	GatewayDuration *prometheus.HistogramVec

	// NavigationDecisions counts guard verdicts.
	// Label: decision (allow|redirect|reload|not_found|failed).
	NavigationDecisions *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg falls back
// to the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		GatewayRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Collection gateway calls by collection, operation and result.",
		}, []string{"collection", "op", "result"}),

		GatewayDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Collection gateway call latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection", "op"}),

		NavigationDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_decisions_total",
			Help:      "Route guard and router outcomes.",
		}, []string{"decision"}),
	}
}

// RecordGatewayCall records one collection gateway call started at start.
func (m *Metrics) RecordGatewayCall(collection, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.GatewayRequests.WithLabelValues(collection, op, result).Inc()
	m.GatewayDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordNavigation(decision string) {
	if m == nil {
		return
	}
	m.NavigationDecisions.WithLabelValues(decision).Inc()
}
