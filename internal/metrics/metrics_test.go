package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("contracts", "find", "ok", time.Millisecond)
		m.ObserveHistory("ok")
		m.ObserveBroadcast("tokens", "transfer")
		m.ObserveCache(true)
	})
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.ObserveRPC("contracts", "findOne", "ok", 10*time.Millisecond)
	m.ObserveRPC("contracts", "findOne", "ok", 10*time.Millisecond)
	m.ObserveBroadcast("market", "sell")
	m.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues("contracts", "findOne", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts.WithLabelValues("market", "sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}
