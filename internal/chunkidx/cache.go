package chunkidx

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru"

	"columnstore/internal/callgroup"
	"columnstore/internal/chunk"
	"columnstore/internal/logging"
)

// Loader materializes a partition's Index from backend chunk metadata. The
// scan executor calls it lazily, once per (dataset, partition) per cache
// miss.
type Loader interface {
	LoadPartitionIndex(ctx context.Context, dataset, partition string, variant Variant) (Index, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, dataset, partition string, variant Variant) (Index, error)

func (f LoaderFunc) LoadPartitionIndex(ctx context.Context, dataset, partition string, variant Variant) (Index, error) {
	return f(ctx, dataset, partition, variant)
}

// Cache holds recently-used per-partition indexes, bounded by an LRU of
// the given capacity — a hot partition keeps its index in memory across
// queries; a cold one is discarded and rebuilt from backend metadata on
// next use. Concurrent misses for the same partition are deduplicated so
// only one materialization runs at a time.
type Cache struct {
	cache  *lru.Cache
	group  callgroup.Group[string]
	loader Loader
	logger *slog.Logger
}

// NewCache builds a Cache of the given capacity backed by loader. A nil
// logger discards all output (see logging.Default).
func NewCache(capacity int, loader Loader, logger *slog.Logger) (*Cache, error) {
	c, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("chunkidx: building LRU cache: %w", err)
	}
	logger = logging.Default(logger)
	return &Cache{cache: c, loader: loader, logger: logger.With("component", "chunkidx.cache")}, nil
}

// Get returns the Index for (dataset, partition), materializing it via the
// configured Loader on a cache miss. Concurrent Get calls for the same key
// share a single in-flight load.
func (c *Cache) Get(ctx context.Context, dataset, partition string, variant Variant) (Index, error) {
	key := cacheKey(dataset, partition, variant)

	if v, ok := c.cache.Get(key); ok {
		return v.(Index), nil
	}

	err := <-c.group.DoChan(key, func() error {
		// Re-check: another caller may have populated the entry while this
		// one waited to acquire the single-flight slot.
		if _, ok := c.cache.Get(key); ok {
			return nil
		}
		idx, err := c.loader.LoadPartitionIndex(ctx, dataset, partition, variant)
		if err != nil {
			return fmt.Errorf("chunkidx: materializing index for %s/%s: %w", dataset, partition, err)
		}
		c.cache.Add(key, idx)
		c.logger.Debug("materialized partition chunk index", "dataset", dataset, "partition", partition)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// DoChan only propagates err to followers, not the leader's result, so
	// every caller — leader and followers alike — fetches the now-cached
	// value itself rather than trusting a closure-local variable.
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("chunkidx: index for %s/%s missing from cache after successful load", dataset, partition)
	}
	return v.(Index), nil
}

// Invalidate discards a cached index, forcing the next Get to rematerialize
// it from the backend. Callers use this after a compaction changes a
// partition's chunk set.
func (c *Cache) Invalidate(dataset, partition string, variant Variant) {
	c.cache.Remove(cacheKey(dataset, partition, variant))
}

// Compact runs compactor against partition's superseded chunk ids and, on
// success, invalidates the cached index so the next Get rebuilds it from
// the backend's post-compaction chunk set. The index never removes
// entries on its own; this is the seam where compaction and cache
// invalidation are tied together.
func (c *Cache) Compact(ctx context.Context, compactor Compactor, dataset, partition string, variant Variant, supersededIDs []chunk.ID) error {
	if err := compactor.Compact(ctx, partition, supersededIDs); err != nil {
		return fmt.Errorf("chunkidx: compacting %s/%s: %w", dataset, partition, err)
	}
	c.Invalidate(dataset, partition, variant)
	return nil
}

// Len returns the number of partition indexes currently cached.
func (c *Cache) Len() int {
	return c.cache.Len()
}

func cacheKey(dataset, partition string, variant Variant) string {
	return fmt.Sprintf("%s\x00%s\x00%d", dataset, partition, variant)
}
