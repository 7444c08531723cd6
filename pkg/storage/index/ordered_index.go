package index

import (
	"fmt"
	"sort"
	"sync"
	"tilestore/pkg/primitives"
	"tilestore/pkg/tuple"
	"tilestore/pkg/types"
)

// entry is a single (key, location) pair in the ordered index.
type entry struct {
	key *tuple.Tuple
	loc primitives.ItemPointer
}

// OrderedIndex is an in-memory index keeping its entries sorted by key, which
// serves both point and range queries. A single RWMutex guards the entry
// list; point reads and range scans share the read lock.
type OrderedIndex struct {
	metadata *Metadata

	mu      sync.RWMutex
	entries []entry
}

// NewOrderedIndex creates an empty ordered index for the given metadata.
func NewOrderedIndex(metadata *Metadata) (*OrderedIndex, error) {
	if metadata == nil {
		return nil, fmt.Errorf("index metadata cannot be nil")
	}
	return &OrderedIndex{metadata: metadata}, nil
}

// Metadata returns the index's descriptor.
func (idx *OrderedIndex) Metadata() *Metadata {
	return idx.metadata
}

// Size returns the number of entries currently stored.
func (idx *OrderedIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// InsertEntry adds a (key, location) pair, keeping entries sorted. For a
// unique index an existing equal key causes ErrDuplicateKey.
func (idx *OrderedIndex) InsertEntry(key *tuple.Tuple, loc primitives.ItemPointer) error {
	if err := idx.checkKey(key); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	pos := idx.lowerBound(key)
	if idx.metadata.Unique && pos < len(idx.entries) && compareKeys(idx.entries[pos].key, key) == 0 {
		return fmt.Errorf("%w: index %q, key (%s)", ErrDuplicateKey, idx.metadata.Name, key)
	}

	// insert after any equal keys so locations keep insertion order
	for pos < len(idx.entries) && compareKeys(idx.entries[pos].key, key) == 0 {
		pos++
	}

	idx.entries = append(idx.entries, entry{})
	copy(idx.entries[pos+1:], idx.entries[pos:])
	idx.entries[pos] = entry{key: key.Clone(), loc: loc}
	return nil
}

// DeleteEntry removes the entry matching both key and location. Removing an
// absent entry is not an error.
func (idx *OrderedIndex) DeleteEntry(key *tuple.Tuple, loc primitives.ItemPointer) error {
	if err := idx.checkKey(key); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for pos := idx.lowerBound(key); pos < len(idx.entries) && compareKeys(idx.entries[pos].key, key) == 0; pos++ {
		if idx.entries[pos].loc == loc {
			idx.entries = append(idx.entries[:pos], idx.entries[pos+1:]...)
			return nil
		}
	}
	return nil
}

// ReplaceEntry repoints the entry for key from oldLoc to newLoc under one
// critical section, so no reader of this index observes the key with
// neither or both locations.
func (idx *OrderedIndex) ReplaceEntry(key *tuple.Tuple, oldLoc, newLoc primitives.ItemPointer) error {
	if err := idx.checkKey(key); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for pos := idx.lowerBound(key); pos < len(idx.entries) && compareKeys(idx.entries[pos].key, key) == 0; pos++ {
		if idx.entries[pos].loc == oldLoc {
			idx.entries[pos].loc = newLoc
			return nil
		}
	}
	return fmt.Errorf("index %q has no entry for key (%s) at %s", idx.metadata.Name, key, oldLoc)
}

// Search returns the locations registered under a key.
func (idx *OrderedIndex) Search(key *tuple.Tuple) ([]primitives.ItemPointer, error) {
	if err := idx.checkKey(key); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	locations := make([]primitives.ItemPointer, 0)
	for pos := idx.lowerBound(key); pos < len(idx.entries) && compareKeys(idx.entries[pos].key, key) == 0; pos++ {
		locations = append(locations, idx.entries[pos].loc)
	}
	return locations, nil
}

// SearchRange returns the locations of all keys in [lo, hi], in key order.
func (idx *OrderedIndex) SearchRange(lo, hi *tuple.Tuple) ([]primitives.ItemPointer, error) {
	if lo != nil {
		if err := idx.checkKey(lo); err != nil {
			return nil, err
		}
	}
	if hi != nil {
		if err := idx.checkKey(hi); err != nil {
			return nil, err
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pos := 0
	if lo != nil {
		pos = idx.lowerBound(lo)
	}

	locations := make([]primitives.ItemPointer, 0)
	for ; pos < len(idx.entries); pos++ {
		if hi != nil && compareKeys(idx.entries[pos].key, hi) > 0 {
			break
		}
		locations = append(locations, idx.entries[pos].loc)
	}
	return locations, nil
}

// lowerBound returns the position of the first entry whose key is >= key.
// Caller must hold at least the read lock.
func (idx *OrderedIndex) lowerBound(key *tuple.Tuple) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		return compareKeys(idx.entries[i].key, key) >= 0
	})
}

func (idx *OrderedIndex) checkKey(key *tuple.Tuple) error {
	if key == nil {
		return fmt.Errorf("index %q: key cannot be nil", idx.metadata.Name)
	}
	if !key.Schema().Equals(idx.metadata.KeySchema) {
		return fmt.Errorf("index %q: key schema %s does not match %s",
			idx.metadata.Name, key.Schema(), idx.metadata.KeySchema)
	}
	return nil
}

// compareKeys orders two key tuples of the same schema field-wise. NULL
// sorts before every value.
func compareKeys(a, b *tuple.Tuple) int {
	for col := primitives.ColumnID(0); col < a.NumColumns(); col++ {
		av, _ := a.GetField(col)
		bv, _ := b.GetField(col)

		if av == nil && bv == nil {
			continue
		}
		if av == nil {
			return -1
		}
		if bv == nil {
			return 1
		}

		if eq, _ := av.Compare(types.Equals, bv); eq {
			continue
		}
		if lt, _ := av.Compare(types.LessThan, bv); lt {
			return -1
		}
		return 1
	}
	return 0
}
