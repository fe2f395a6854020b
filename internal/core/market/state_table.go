package market

import (
	"bytes"
	"fmt"
	"sort"
)

// entryAction represents the type of modification to a tracked record
type entryAction int

const (
	// actionCache means the record was read but not modified
	actionCache entryAction = iota
	// actionInsert means a new record was created
	actionInsert
	// actionModify means an existing record was modified
	actionModify
	// actionErase means a record was deleted
	actionErase
)

// trackedEntry represents a record being tracked for changes
type trackedEntry struct {
	action   entryAction
	original []byte // state in the base view (nil for inserts)
	current  []byte // buffered state (nil after erase)
}

// applyStateTable wraps a MarketView and buffers every modification made
// while applying a single action. On success the buffer is committed to the
// base view in one pass; on failure it is discarded, giving the all-or-
// nothing semantics every action requires.
type applyStateTable struct {
	base  MarketView
	items map[string]*trackedEntry
}

func newApplyStateTable(base MarketView) *applyStateTable {
	return &applyStateTable{
		base:  base,
		items: make(map[string]*trackedEntry),
	}
}

// Read reads a record, tracking it as cached
func (t *applyStateTable) Read(k []byte) ([]byte, error) {
	if entry, exists := t.items[string(k)]; exists {
		if entry.action == actionErase {
			return nil, nil
		}
		return entry.current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	if data != nil {
		t.items[string(k)] = &trackedEntry{
			action:   actionCache,
			original: data,
			current:  data,
		}
	}
	return data, nil
}

// Exists checks if a record exists
func (t *applyStateTable) Exists(k []byte) (bool, error) {
	if entry, exists := t.items[string(k)]; exists {
		return entry.action != actionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new record
func (t *applyStateTable) Insert(k []byte, data []byte) error {
	if entry, exists := t.items[string(k)]; exists {
		if entry.action != actionErase {
			return fmt.Errorf("record already exists: %s", KeyString(k))
		}
		// re-insert over a buffered erase becomes a modify
		entry.action = actionModify
		entry.current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("record already exists: %s", KeyString(k))
	}

	t.items[string(k)] = &trackedEntry{
		action:  actionInsert,
		current: data,
	}
	return nil
}

// Update modifies an existing record
func (t *applyStateTable) Update(k []byte, data []byte) error {
	if entry, exists := t.items[string(k)]; exists {
		if entry.action == actionErase {
			return fmt.Errorf("record was erased: %s", KeyString(k))
		}
		if entry.action == actionCache {
			entry.action = actionModify
		}
		entry.current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("record does not exist: %s", KeyString(k))
	}

	t.items[string(k)] = &trackedEntry{
		action:   actionModify,
		original: original,
		current:  data,
	}
	return nil
}

// Erase removes a record
func (t *applyStateTable) Erase(k []byte) error {
	if entry, exists := t.items[string(k)]; exists {
		if entry.action == actionInsert {
			// insert-then-erase within one action cancels out
			delete(t.items, string(k))
			return nil
		}
		entry.action = actionErase
		entry.current = nil
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("record does not exist: %s", KeyString(k))
	}

	t.items[string(k)] = &trackedEntry{
		action:   actionErase,
		original: original,
	}
	return nil
}

// ForEach merges buffered and base records under the prefix in key order.
func (t *applyStateTable) ForEach(prefix []byte, fn func(key, data []byte) bool) error {
	merged := make(map[string][]byte)
	if err := t.base.ForEach(prefix, func(key, data []byte) bool {
		merged[string(key)] = data
		return true
	}); err != nil {
		return err
	}
	for k, entry := range t.items {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		switch entry.action {
		case actionErase:
			delete(merged, k)
		case actionInsert, actionModify:
			merged[k] = entry.current
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			return nil
		}
	}
	return nil
}

// commit writes every buffered change through to the base view.
func (t *applyStateTable) commit() error {
	for k, entry := range t.items {
		key := []byte(k)
		switch entry.action {
		case actionInsert:
			if err := t.base.Insert(key, entry.current); err != nil {
				return err
			}
		case actionModify:
			if err := t.base.Update(key, entry.current); err != nil {
				return err
			}
		case actionErase:
			if err := t.base.Erase(key); err != nil {
				return err
			}
		}
	}
	return nil
}
