package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors shared by the client stack.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Transport metrics
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	// History endpoint metrics
	HistoryAttempts *prometheus.CounterVec

	// Builder metrics
	Broadcasts *prometheus.CounterVec

	// Query cache metrics
	CacheLookups *prometheus.CounterVec
}

// NewMetrics registers the collectors on the default registerer
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry registers the collectors on a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		RPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hiveengine_rpc_requests_total",
				Help: "JSON-RPC requests sent to the sidechain node",
			},
			[]string{"endpoint", "method", "outcome"},
		),
		RPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hiveengine_rpc_request_duration_seconds",
				Help:    "Latency of JSON-RPC requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		HistoryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hiveengine_history_attempts_total",
				Help: "Requests made to the account history service",
			},
			[]string{"outcome"},
		),
		Broadcasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hiveengine_broadcasts_total",
				Help: "Contract payloads handed to the broadcaster",
			},
			[]string{"contract", "action"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hiveengine_cache_lookups_total",
				Help: "Query cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) ObserveRPC(endpoint, method, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(endpoint, method, outcome).Inc()
	m.RPCDuration.WithLabelValues(endpoint, method).Observe(took.Seconds())
}

func (m *Metrics) ObserveHistory(outcome string) {
	if m == nil {
		return
	}
	m.HistoryAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBroadcast(contract, action string) {
	if m == nil {
		return
	}
	m.Broadcasts.WithLabelValues(contract, action).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
