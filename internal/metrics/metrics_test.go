package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRelay_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelay(reg)

	m.Observe("ok", 120*time.Millisecond)
	m.Observe("ok", 80*time.Millisecond)
	m.Observe("rate_limited", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("rate_limited")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestRelay_NilIsNoop(t *testing.T) {
	var m *Relay
	assert.NotPanics(t, func() { m.Observe("ok", time.Second) })
}
