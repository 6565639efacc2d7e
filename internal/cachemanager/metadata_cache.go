package cachemanager

import (
	"context"
	"time"

	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// LookupRecorder observes metadata cache lookups.
type LookupRecorder interface {
	CacheLookup(hit bool)
}

// MetadataCache stores described class metadata for the driver chains.
type MetadataCache struct {
	cache    CacheManager[string, *persistence.ClassMetadata]
	ttl      time.Duration
	sliding  bool
	recorder LookupRecorder
}

var _ metadata.MetadataCache = (*MetadataCache)(nil)

// MetadataCacheOption configures a MetadataCache.
type MetadataCacheOption func(*MetadataCache)

// WithSlidingExpiration extends an entry's TTL on every hit.
func WithSlidingExpiration() MetadataCacheOption {
	return func(c *MetadataCache) {
		c.sliding = true
	}
}

// WithLookupRecorder reports every lookup to r.
func WithLookupRecorder(r LookupRecorder) MetadataCacheOption {
	return func(c *MetadataCache) {
		c.recorder = r
	}
}

// NewMetadataCache wraps cache; entries expire after ttl.
func NewMetadataCache(cache CacheManager[string, *persistence.ClassMetadata], ttl time.Duration, opts ...MetadataCacheOption) *MetadataCache {
	c := &MetadataCache{cache: cache, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached metadata so callers cannot mutate entries.
func (c *MetadataCache) Get(ctx context.Context, key string) (*persistence.ClassMetadata, bool) {
	var (
		md *persistence.ClassMetadata
		ok bool
	)
	if c.sliding {
		md, ok = c.cache.GetWithRefresh(ctx, key, c.ttl)
	} else {
		md, ok = c.cache.Get(ctx, key)
	}
	if c.recorder != nil {
		c.recorder.CacheLookup(ok)
	}
	if !ok || md == nil {
		return nil, false
	}
	return cloneMetadata(md), true
}

func (c *MetadataCache) Set(ctx context.Context, key string, md *persistence.ClassMetadata) {
	if md == nil {
		return
	}
	c.cache.Set(ctx, key, cloneMetadata(md), c.ttl)
}

func (c *MetadataCache) Flush(ctx context.Context) error {
	return c.cache.Flush(ctx)
}

// Len returns the number of cached entries.
func (c *MetadataCache) Len() int {
	return c.cache.Len()
}

func cloneMetadata(md *persistence.ClassMetadata) *persistence.ClassMetadata {
	clone := *md
	clone.Fields = append([]persistence.FieldMetadata(nil), md.Fields...)
	if md.Options != nil {
		clone.Options = make(map[string]string, len(md.Options))
		for k, v := range md.Options {
			clone.Options[k] = v
		}
	}
	return &clone
}
