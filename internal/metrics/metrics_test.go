package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) (*PrometheusCollector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	return c, reg
}

func TestNoopCollector(t *testing.T) {
	c := Noop()
	require.NotNil(t, c)

	ctx := context.Background()
	got, done := c.BuildStarted(ctx, "default")
	require.Equal(t, ctx, got)
	done(errors.New("ignored"))

	_, done = c.HookStarted(ctx, "boot", "run", "ext")
	done(nil)
	c.CacheLookup(true)
	c.IncMappingReload("/tmp")
}

func TestPrometheusCollector_BuildCounts(t *testing.T) {
	c, _ := newTestCollector(t)
	tick := time.Unix(0, 0)
	c.now = func() time.Time {
		tick = tick.Add(250 * time.Millisecond)
		return tick
	}

	_, done := c.BuildStarted(context.Background(), "billing")
	done(nil)
	_, done = c.BuildStarted(context.Background(), "billing")
	done(errors.New("dial failed"))

	require.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("billing", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("billing", "error")))
	require.Equal(t, 1, testutil.CollectAndCount(c.buildDuration))
}

func TestPrometheusCollector_HookCounts(t *testing.T) {
	c, _ := newTestCollector(t)

	_, done := c.HookStarted(context.Background(), "register", "", "mapping-paths")
	done(nil)
	_, done = c.HookStarted(context.Background(), "boot", "run-1", "connection-check")
	done(errors.New("unreachable"))

	require.Equal(t, 1.0, testutil.ToFloat64(c.hooks.WithLabelValues("register", "mapping-paths", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.hooks.WithLabelValues("boot", "connection-check", "error")))
}

func TestPrometheusCollector_CacheLookups(t *testing.T) {
	c, _ := newTestCollector(t)

	c.CacheLookup(true)
	c.CacheLookup(true)
	c.CacheLookup(false)

	require.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
}

func TestPrometheusCollector_MappingReloads(t *testing.T) {
	c, _ := newTestCollector(t)

	c.IncMappingReload("/app/mappings")
	require.Equal(t, 1.0, testutil.ToFloat64(c.mappingReloads.WithLabelValues("/app/mappings")))
}

func TestPrometheusCollector_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	second, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	require.Same(t, first.builds, second.builds)

	first.CacheLookup(true)
	second.CacheLookup(true)
	require.Equal(t, 2.0, testutil.ToFloat64(first.cacheLookups.WithLabelValues("hit")))
}

func TestPrometheusCollector_ConflictingRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "manager_builds_total",
		Help:      "conflicting type",
	})))

	_, err := NewPrometheusCollector(reg)
	require.Error(t, err)
}

func TestHandler(t *testing.T) {
	c, reg := newTestCollector(t)
	c.CacheLookup(false)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `entityreg_metadata_cache_lookups_total{result="miss"} 1`))
}
