package storage

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

// PebbleStore is the persistent LSM-tree backend. Market records are small
// point-lookup values, so the options favor bloom filters and modest block
// sizes over scan throughput.
type PebbleStore struct {
	path string
	sync bool
	db   *pebble.DB
	open atomic.Bool

	stats struct {
		reads  atomic.Int64
		writes atomic.Int64
	}
}

// NewPebbleStore creates a pebble backend rooted at path. The database is
// not touched until Open.
func NewPebbleStore(path string, syncWrites bool) *PebbleStore {
	return &PebbleStore{path: path, sync: syncWrites}
}

func newPebbleStore(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("pebble backend requires a path")
	}
	return NewPebbleStore(cfg.Path, cfg.Sync), nil
}

func (p *PebbleStore) Open(createIfMissing bool) error {
	if !p.open.CompareAndSwap(false, true) {
		return ErrAlreadyOpen
	}

	if createIfMissing {
		if err := os.MkdirAll(p.path, 0o755); err != nil {
			p.open.Store(false)
			return fmt.Errorf("create store directory %s: %w", p.path, err)
		}
	}

	db, err := pebble.Open(p.path, p.buildOptions())
	if err != nil {
		p.open.Store(false)
		return fmt.Errorf("open pebble store at %s: %w", p.path, err)
	}
	p.db = db
	return nil
}

func (p *PebbleStore) buildOptions() *pebble.Options {
	opts := &pebble.Options{
		Cache:                 pebble.NewCache(128 << 20),
		MemTableSize:          32 << 20,
		L0CompactionThreshold: 4,
		MaxConcurrentCompactions: func() int {
			return runtime.NumCPU()
		},
		Levels: make([]pebble.LevelOptions, 7),
	}
	for i := range opts.Levels {
		opts.Levels[i] = pebble.LevelOptions{
			BlockSize:      16 << 10,
			FilterPolicy:   bloom.FilterPolicy(10),
			FilterType:     pebble.TableFilter,
			TargetFileSize: int64(4<<20) << uint(i),
		}
	}
	return opts
}

func (p *PebbleStore) Close() error {
	if !p.open.CompareAndSwap(true, false) {
		return nil
	}

	var err error
	if p.db != nil {
		if flushErr := p.db.Flush(); flushErr != nil {
			err = flushErr
		}
		if closeErr := p.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		p.db = nil
	}
	return err
}

func (p *PebbleStore) IsOpen() bool { return p.open.Load() }

func (p *PebbleStore) Get(key []byte) ([]byte, error) {
	if !p.IsOpen() {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	p.stats.reads.Add(1)
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (p *PebbleStore) Has(key []byte) (bool, error) {
	_, err := p.Get(key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *PebbleStore) Put(key, value []byte) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	// NoSync relies on the WAL for durability unless sync writes are on
	mode := pebble.NoSync
	if p.sync {
		mode = pebble.Sync
	}
	if err := p.db.Set(key, value, mode); err != nil {
		return err
	}
	p.stats.writes.Add(1)
	return nil
}

func (p *PebbleStore) Delete(key []byte) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	mode := pebble.NoSync
	if p.sync {
		mode = pebble.Sync
	}
	return p.db.Delete(key, mode)
}

func (p *PebbleStore) ForEachPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	if !p.IsOpen() {
		return ErrClosed
	}

	opts := &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	}
	iter, err := p.db.NewIter(opts)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		value := append([]byte(nil), iter.Value()...)
		if !fn(key, value) {
			break
		}
	}
	return iter.Error()
}

func (p *PebbleStore) Sync() error {
	if !p.IsOpen() {
		return ErrClosed
	}
	return p.db.Flush()
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when the prefix is all 0xff.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func init() {
	Register("pebble", newPebbleStore)
}
