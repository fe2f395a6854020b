package market

import (
	"bytes"
	"sort"
)

// MarketView provides read/write access to market state.
// Read returns nil data for absent keys.
type MarketView interface {
	// Read reads a record
	Read(k []byte) ([]byte, error)

	// Exists checks if a record exists
	Exists(k []byte) (bool, error)

	// Insert adds a new record
	Insert(k []byte, data []byte) error

	// Update modifies an existing record
	Update(k []byte, data []byte) error

	// Erase removes a record
	Erase(k []byte) error

	// ForEach iterates over all records under the given prefix in key order.
	// If fn returns false, iteration stops early.
	ForEach(prefix []byte, fn func(key, data []byte) bool) error
}

// MapView is an in-memory MarketView. It backs the test environment and the
// engine's default state when no persistent store is configured.
type MapView struct {
	items map[string][]byte
}

// NewMapView creates an empty in-memory view.
func NewMapView() *MapView {
	return &MapView{items: make(map[string][]byte)}
}

func (v *MapView) Read(k []byte) ([]byte, error) {
	data, ok := v.items[string(k)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (v *MapView) Exists(k []byte) (bool, error) {
	_, ok := v.items[string(k)]
	return ok, nil
}

func (v *MapView) Insert(k []byte, data []byte) error {
	v.items[string(k)] = append([]byte(nil), data...)
	return nil
}

func (v *MapView) Update(k []byte, data []byte) error {
	v.items[string(k)] = append([]byte(nil), data...)
	return nil
}

func (v *MapView) Erase(k []byte) error {
	delete(v.items, string(k))
	return nil
}

func (v *MapView) ForEach(prefix []byte, fn func(key, data []byte) bool) error {
	keys := make([]string, 0, len(v.items))
	for k := range v.items {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), v.items[k]) {
			return nil
		}
	}
	return nil
}
