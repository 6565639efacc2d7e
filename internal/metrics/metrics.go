// Package metrics exposes registry, extension and cache activity as
// Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/registry"
)

const namespace = "entityreg"

// Collector captures events emitted by the registry, the extension
// lifecycle, the metadata cache and the mapping watcher. Hooks run inline
// with manager construction and lookups, so implementations must be cheap.
type Collector interface {
	registry.Observer
	extension.Observer
	CacheLookup(hit bool)
	IncMappingReload(dir string)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) BuildStarted(ctx context.Context, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (noopCollector) HookStarted(ctx context.Context, _, _, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (noopCollector) CacheLookup(bool)        {}
func (noopCollector) IncMappingReload(string) {}

// PrometheusCollector records metrics into a Prometheus registerer.
type PrometheusCollector struct {
	builds         *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	hooks          *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	mappingReloads *prometheus.CounterVec

	now func() time.Time
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the collector's metrics with reg,
// reusing metrics that are already registered under the same name.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	builds, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "manager_builds_total",
		Help:      "Manager construction attempts by manager name and result.",
	}, []string{"manager", "result"}))
	if err != nil {
		return nil, err
	}

	buildDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "manager_build_duration_seconds",
		Help:      "Time spent constructing a manager.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"manager"}))
	if err != nil {
		return nil, err
	}

	hooks, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extension_hooks_total",
		Help:      "Extension hook invocations by phase, extension and result.",
	}, []string{"phase", "extension", "result"}))
	if err != nil {
		return nil, err
	}

	cacheLookups, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "metadata_cache_lookups_total",
		Help:      "Described-metadata cache lookups by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	mappingReloads, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mapping_reloads_total",
		Help:      "Cache invalidations triggered by mapping file changes, per directory.",
	}, []string{"dir"}))
	if err != nil {
		return nil, err
	}

	return &PrometheusCollector{
		builds:         builds,
		buildDuration:  buildDuration,
		hooks:          hooks,
		cacheLookups:   cacheLookups,
		mappingReloads: mappingReloads,
		now:            time.Now,
	}, nil
}

// register registers c, returning the existing collector of the same type
// when one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// BuildStarted implements registry.Observer.
func (p *PrometheusCollector) BuildStarted(ctx context.Context, name string) (context.Context, func(error)) {
	start := p.now()
	return ctx, func(err error) {
		p.builds.WithLabelValues(name, result(err)).Inc()
		p.buildDuration.WithLabelValues(name).Observe(p.now().Sub(start).Seconds())
	}
}

// HookStarted implements extension.Observer.
func (p *PrometheusCollector) HookStarted(ctx context.Context, phase, _, name string) (context.Context, func(error)) {
	return ctx, func(err error) {
		p.hooks.WithLabelValues(phase, name, result(err)).Inc()
	}
}

// CacheLookup records a metadata cache hit or miss.
func (p *PrometheusCollector) CacheLookup(hit bool) {
	label := "miss"
	if hit {
		label = "hit"
	}
	p.cacheLookups.WithLabelValues(label).Inc()
}

// IncMappingReload counts a cache invalidation caused by changes under dir.
func (p *PrometheusCollector) IncMappingReload(dir string) {
	p.mappingReloads.WithLabelValues(dir).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
