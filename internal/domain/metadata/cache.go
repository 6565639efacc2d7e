package metadata

import (
	"context"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// MetadataCache stores described class metadata under opaque keys.
// Implementations live in infrastructure; the chain only builds keys.
type MetadataCache interface {
	Get(ctx context.Context, key string) (*persistence.ClassMetadata, bool)
	Set(ctx context.Context, key string, md *persistence.ClassMetadata)
	Flush(ctx context.Context) error
}

// cacheKey is the opaque key under which a chain stores class metadata.
func cacheKey(manager, className string) string {
	return manager + "|" + className
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*persistence.ClassMetadata, bool) { return nil, false }
func (noopCache) Set(context.Context, string, *persistence.ClassMetadata)        {}
func (noopCache) Flush(context.Context) error                                    { return nil }
