package metrics_test

import (
	"testing"
	"time"

	"github.com/b-clawson/pms-finder/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveUpstream("matsui", "GET", "ok", 20*time.Millisecond)
	m.ObserveUpstream("matsui", "GET", "ok", 30*time.Millisecond)
	m.ObserveCache("matsui", metrics.CacheHit)
	m.ObserveCatalogLoad("OW Stretch", "loaded")
	m.ObserveMatch("catalog")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("matsui", "GET", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCache.WithLabelValues("matsui", metrics.CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogLoads.WithLabelValues("OW Stretch", "loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Matches.WithLabelValues("catalog")))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("fnink", "POST", "error", time.Second)
		m.ObserveCache("fnink", metrics.CacheMiss)
		m.ObserveCatalogLoad("x", "missing")
		m.ObserveMatch("vendor")
	})
}
