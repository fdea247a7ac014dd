package store

import (
	"context"

	"github.com/kode4food/tremor"
)

// Cached serves catalog reads from an LRU in front of an Archive. Writes
// and deletes pass through and invalidate the cached entry
type Cached struct {
	Archive
	cache *tremor.CatalogCache
}

// NewCached wraps an Archive with a catalog cache
func NewCached(a Archive, cache *tremor.CatalogCache) *Cached {
	if cache == nil {
		cache = tremor.NewCatalogCache(tremor.DefaultCacheSize)
	}
	return &Cached{
		Archive: a,
		cache:   cache,
	}
}

// Catalog returns the named catalog, reading the Archive on a miss
func (c *Cached) Catalog(
	ctx context.Context, name string,
) (*tremor.Catalog, error) {
	return c.cache.Get(name, func() (*tremor.Catalog, error) {
		rec, err := c.Archive.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		return rec.Catalog()
	})
}

// Put stores the record and drops any cached catalog for the name
func (c *Cached) Put(ctx context.Context, name string, rec *Record) error {
	c.cache.Remove(name)
	return c.Archive.Put(ctx, name, rec)
}

// Delete removes the record and any cached catalog for the name
func (c *Cached) Delete(ctx context.Context, name string) error {
	c.cache.Remove(name)
	return c.Archive.Delete(ctx, name)
}
