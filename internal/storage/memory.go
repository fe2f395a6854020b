package storage

import (
	"bytes"
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryStore is a thread-safe in-memory Store for tests and development.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	open atomic.Bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func newMemoryStore(cfg Config) (Store, error) {
	return NewMemoryStore(), nil
}

func (m *MemoryStore) Open(createIfMissing bool) error {
	if !m.open.CompareAndSwap(false, true) {
		return ErrAlreadyOpen
	}
	return nil
}

func (m *MemoryStore) Close() error {
	if !m.open.CompareAndSwap(true, false) {
		return nil
	}
	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) IsOpen() bool { return m.open.Load() }

func (m *MemoryStore) Get(key []byte) ([]byte, error) {
	if !m.IsOpen() {
		return nil, ErrClosed
	}
	m.mu.RLock()
	value, ok := m.data[string(key)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemoryStore) Has(key []byte) (bool, error) {
	if !m.IsOpen() {
		return false, ErrClosed
	}
	m.mu.RLock()
	_, ok := m.data[string(key)]
	m.mu.RUnlock()
	return ok, nil
}

func (m *MemoryStore) Put(key, value []byte) error {
	if !m.IsOpen() {
		return ErrClosed
	}
	m.mu.Lock()
	m.data[string(key)] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(key []byte) error {
	if !m.IsOpen() {
		return ErrClosed
	}
	m.mu.Lock()
	delete(m.data, string(key))
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ForEachPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	if !m.IsOpen() {
		return ErrClosed
	}
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	// copy values so the callback never sees the live map
	pairs := make([][]byte, len(keys))
	for i, k := range keys {
		pairs[i] = append([]byte(nil), m.data[k]...)
	}
	m.mu.RUnlock()

	for i, k := range keys {
		if !fn([]byte(k), pairs[i]) {
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) Sync() error {
	if !m.IsOpen() {
		return ErrClosed
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func init() {
	Register("memory", newMemoryStore)
}
