// Package storage provides the persistent key-value layer under the market
// engine. Backends register themselves by name; the daemon picks one from
// configuration at startup.
package storage

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound indicates that a requested key was not found
	ErrNotFound = errors.New("key not found")

	// ErrClosed indicates that the store is closed
	ErrClosed = errors.New("store is closed")

	// ErrAlreadyOpen indicates a double Open on the same store
	ErrAlreadyOpen = errors.New("store is already open")
)

// Store is the raw byte-oriented interface every backend implements.
// Get returns ErrNotFound for absent keys.
type Store interface {
	// Open prepares the store for use.
	Open(createIfMissing bool) error

	// Close flushes and releases resources.
	Close() error

	// IsOpen reports whether the store is usable.
	IsOpen() bool

	// Get retrieves the value for a key.
	Get(key []byte) ([]byte, error)

	// Has checks key existence without reading the value.
	Has(key []byte) (bool, error)

	// Put writes a key-value pair, overwriting any previous value.
	Put(key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// ForEachPrefix visits all pairs under prefix in key order. If fn
	// returns false, iteration stops early.
	ForEachPrefix(prefix []byte, fn func(key, value []byte) bool) error

	// Sync forces pending writes to durable storage.
	Sync() error
}

// Config carries backend-independent store settings.
type Config struct {
	// Path is the on-disk location for persistent backends.
	Path string

	// CacheEntries sizes the read-through cache. Zero disables caching.
	CacheEntries int

	// Sync, when set, makes every write wait for durability.
	Sync bool
}

// Factory creates a backend instance from a config.
type Factory func(cfg Config) (Store, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]Factory)
)

// Register makes a backend available under the given name.
func Register(name string, factory Factory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = factory
}

// OpenBackend creates and opens the named backend.
func OpenBackend(name string, cfg Config) (Store, error) {
	backendMu.RLock()
	factory, ok := backends[name]
	backendMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s", name)
	}

	store, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Open(true); err != nil {
		return nil, err
	}
	if cfg.CacheEntries > 0 {
		return NewCachedStore(store, cfg.CacheEntries)
	}
	return store, nil
}

// Available returns the registered backend names.
func Available() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}
