package tremor

import (
	"errors"
	"strconv"
	"sync"

	"github.com/kode4food/lru"
)

type (
	// CatalogCache keeps the most recently used catalogs by name so repeated
	// sessions over the same dataset skip ingestion or archive reads
	CatalogCache struct {
		lru  *lru.Cache[*Catalog]
		gens map[string]uint64
		mu   sync.Mutex
	}

	// CatalogLoader produces a catalog on a cache miss
	CatalogLoader func() (*Catalog, error)
)

// errCacheMiss stops a Peek from populating the cache
var errCacheMiss = errors.New("catalog not cached")

// NewCatalogCache creates a cache holding up to maxSize catalogs
func NewCatalogCache(maxSize int) *CatalogCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &CatalogCache{
		lru:  lru.NewCache[*Catalog](maxSize),
		gens: map[string]uint64{},
	}
}

// Get returns the cached catalog for key, calling load on a miss. Failed
// loads are not cached
func (c *CatalogCache) Get(key string, load CatalogLoader) (*Catalog, error) {
	return c.lru.Get(c.slot(key), lru.Constructor[*Catalog](load))
}

// Peek returns the cached catalog for key without loading, marking it
// recently used
func (c *CatalogCache) Peek(key string) (*Catalog, bool) {
	cat, err := c.lru.Get(c.slot(key), func() (*Catalog, error) {
		return nil, errCacheMiss
	})
	return cat, err == nil
}

// Put stores a catalog under key, replacing any cached one. The least
// recently used entry is evicted when the cache is full
func (c *CatalogCache) Put(key string, cat *Catalog) {
	c.Remove(key)
	_, _ = c.lru.Get(c.slot(key), func() (*Catalog, error) {
		return cat, nil
	})
}

// Remove drops key from the cache. The stale entry is never read again
// and ages out of the LRU
func (c *CatalogCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
}

func (c *CatalogCache) slot(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return key + "#" + strconv.FormatUint(c.gens[key], 10)
}
