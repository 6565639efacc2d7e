package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache memoizes a loader per key. The service uses it to keep
// each chain's scanned class names until the mappings change. Loader errors
// are returned as-is and never stored.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache   CacheManager[K, V]
	load    func(ctx context.Context, input I) (V, error)
	ttl     time.Duration
	sliding bool
}

// ReadThroughOption configures a ReadThroughCache.
type ReadThroughOption func(*readThroughConfig)

type readThroughConfig struct {
	sliding bool
}

// ReadThroughSliding extends an entry's TTL on every hit.
func ReadThroughSliding(enabled bool) ReadThroughOption {
	return func(c *readThroughConfig) {
		c.sliding = enabled
	}
}

// NewReadThroughCache stores load's results in cache for ttl.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	ttl time.Duration,
	opts ...ReadThroughOption,
) *ReadThroughCache[K, V, I] {
	var cfg readThroughConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ReadThroughCache[K, V, I]{
		cache:   cache,
		load:    load,
		ttl:     ttl,
		sliding: cfg.sliding,
	}
}

// Get returns the value stored under key, loading it from input on a miss.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I) (V, error) {
	if value, ok := r.lookup(ctx, key); ok {
		return value, nil
	}

	value, err := r.load(ctx, input)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, r.ttl)
	return value, nil
}

func (r *ReadThroughCache[K, V, I]) lookup(ctx context.Context, key K) (V, bool) {
	if r.sliding {
		return r.cache.GetWithRefresh(ctx, key, r.ttl)
	}
	return r.cache.Get(ctx, key)
}

// Invalidate drops every cached value.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context) error {
	return r.cache.Flush(ctx)
}
