package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnregisteredMetrics(t *testing.T) {
	a := NewUnregisteredMetrics()
	b := NewUnregisteredMetrics()

	a.BuildsTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.BuildsTotal))
	assert.Zero(t, testutil.ToFloat64(b.BuildsTotal))

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "storm_dashboard_builds_total", f.GetName())
	}
}
