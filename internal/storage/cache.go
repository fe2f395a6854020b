package storage

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore wraps a backend with a read-through LRU cache. Writes and
// deletes go straight to the backend and update the cache in place, so a
// cached read never returns stale data from this process.
type CachedStore struct {
	backend Store
	cache   *lru.Cache[string, []byte]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedStore wraps backend with an LRU of the given entry count.
func NewCachedStore(backend Store, entries int) (*CachedStore, error) {
	cache, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &CachedStore{backend: backend, cache: cache}, nil
}

func (c *CachedStore) Open(createIfMissing bool) error {
	if c.backend.IsOpen() {
		return nil
	}
	return c.backend.Open(createIfMissing)
}

func (c *CachedStore) Close() error {
	c.cache.Purge()
	return c.backend.Close()
}

func (c *CachedStore) IsOpen() bool { return c.backend.IsOpen() }

func (c *CachedStore) Get(key []byte) ([]byte, error) {
	if value, ok := c.cache.Get(string(key)); ok {
		c.hits.Add(1)
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	}
	c.misses.Add(1)

	value, err := c.backend.Get(key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(string(key), append([]byte(nil), value...))
	return value, nil
}

func (c *CachedStore) Has(key []byte) (bool, error) {
	if c.cache.Contains(string(key)) {
		return true, nil
	}
	return c.backend.Has(key)
}

func (c *CachedStore) Put(key, value []byte) error {
	if err := c.backend.Put(key, value); err != nil {
		return err
	}
	c.cache.Add(string(key), append([]byte(nil), value...))
	return nil
}

func (c *CachedStore) Delete(key []byte) error {
	if err := c.backend.Delete(key); err != nil {
		return err
	}
	c.cache.Remove(string(key))
	return nil
}

// ForEachPrefix bypasses the cache; range scans hit the backend directly.
func (c *CachedStore) ForEachPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	return c.backend.ForEachPrefix(prefix, fn)
}

func (c *CachedStore) Sync() error { return c.backend.Sync() }

// CacheStats reports hit/miss counters and occupancy.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Stats returns a snapshot of the cache counters.
func (c *CachedStore) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.cache.Len(),
	}
}
