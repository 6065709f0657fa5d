package runtime

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_TrackSessionLifecycle(t *testing.T) {
	e := openTestEngine(t)
	reg := prometheus.NewRegistry()

	m, err := NewMetrics(reg, e.DB())
	require.NoError(t, err)
	e.Use(m)

	ctx := context.Background()
	require.NoError(t, e.WithSession(ctx, selectOne))
	require.NoError(t, e.WithSession(ctx, selectOne))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Acquire(cancelled)
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.acquired))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.released))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.active))

	families, err := reg.Gather()
	require.NoError(t, err)
	var poolStats bool
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "go_sql_") {
			poolStats = true
		}
	}
	assert.True(t, poolStats, "pool statistics collector not registered")
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg, nil)
	require.NoError(t, err)

	_, err = NewMetrics(reg, nil)
	require.Error(t, err)
}
