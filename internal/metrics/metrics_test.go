package metrics_test

import (
	"testing"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m := metrics.NewMetrics(reg)
	require.NotNil(t, m)

	m.OrderTransitions.WithLabelValues("pending", "completed").Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(m.OrderTransitions.WithLabelValues("pending", "completed")), 0)
}

func TestNewMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = metrics.NewMetrics(reg)

	assert.Panics(t, func() {
		metrics.NewMetrics(reg)
	})
}
