package storage

import (
	"github.com/tidemark/marketd/internal/core/market"
)

// StoreView adapts a Store to the engine's view interface, giving the
// engine persistent state without knowing about backends.
type StoreView struct {
	store Store
}

var _ market.MarketView = (*StoreView)(nil)

// NewStoreView wraps a store for use as the engine's base view.
func NewStoreView(store Store) *StoreView {
	return &StoreView{store: store}
}

func (v *StoreView) Read(k []byte) ([]byte, error) {
	data, err := v.store.Get(k)
	if err == ErrNotFound {
		return nil, nil
	}
	return data, err
}

func (v *StoreView) Exists(k []byte) (bool, error) {
	return v.store.Has(k)
}

func (v *StoreView) Insert(k []byte, data []byte) error {
	return v.store.Put(k, data)
}

func (v *StoreView) Update(k []byte, data []byte) error {
	return v.store.Put(k, data)
}

func (v *StoreView) Erase(k []byte) error {
	return v.store.Delete(k)
}

func (v *StoreView) ForEach(prefix []byte, fn func(key, data []byte) bool) error {
	return v.store.ForEachPrefix(prefix, fn)
}
