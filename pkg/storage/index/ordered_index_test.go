package index

import (
	"errors"
	"testing"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/tuple"
	"tilestore/pkg/types"

	"github.com/magiconair/properties/assert"
)

func mustTableSchema(t *testing.T) *schema.Schema {
	t.Helper()

	colA, err := schema.NewColumn("COL_A", types.Int32Type, false)
	if err != nil {
		t.Fatalf("failed to create column: %v", err)
	}
	colB, err := schema.NewColumn("COL_B", types.Int32Type, false)
	if err != nil {
		t.Fatalf("failed to create column: %v", err)
	}
	s, err := schema.NewSchema([]schema.Column{colA, colB})
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func mustIndex(t *testing.T, keyAttrs []primitives.ColumnID, unique bool) *OrderedIndex {
	t.Helper()

	md, err := NewMetadata("test_index", mustTableSchema(t), keyAttrs, unique)
	if err != nil {
		t.Fatalf("failed to create metadata: %v", err)
	}
	idx, err := NewOrderedIndex(md)
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	return idx
}

func intKey(t *testing.T, idx *OrderedIndex, v int32) *tuple.Tuple {
	t.Helper()

	key := tuple.NewTuple(idx.Metadata().KeySchema)
	if err := key.SetField(0, types.NewInt32Field(v)); err != nil {
		t.Fatalf("failed to build key: %v", err)
	}
	return key
}

func loc(block primitives.TileGroupID, offset primitives.SlotID) primitives.ItemPointer {
	return primitives.ItemPointer{BlockID: block, Offset: offset}
}

func TestMetadata(t *testing.T) {
	md, err := NewMetadata("pk", mustTableSchema(t), []primitives.ColumnID{0}, true)
	if err != nil {
		t.Fatalf("failed to create metadata: %v", err)
	}

	assert.Equal(t, md.KeySchema.NumColumns(), primitives.ColumnID(1))
	if !md.CoversColumn(0) {
		t.Errorf("metadata should cover key column 0")
	}
	if md.CoversColumn(1) {
		t.Errorf("metadata should not cover column 1")
	}

	if _, err := NewMetadata("", mustTableSchema(t), []primitives.ColumnID{0}, true); err == nil {
		t.Errorf("expected error for empty index name")
	}
	if _, err := NewMetadata("bad", mustTableSchema(t), []primitives.ColumnID{5}, true); err == nil {
		t.Errorf("expected error for out-of-range key attr")
	}
}

func TestOrderedIndexInsertAndSearch(t *testing.T) {
	idx := mustIndex(t, []primitives.ColumnID{0}, false)

	for i := int32(0); i < 10; i++ {
		if err := idx.InsertEntry(intKey(t, idx, i), loc(1, primitives.SlotID(i))); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}
	assert.Equal(t, idx.Size(), 10)

	locations, err := idx.Search(intKey(t, idx, 4))
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	assert.Equal(t, locations, []primitives.ItemPointer{loc(1, 4)})

	missing, err := idx.Search(intKey(t, idx, 99))
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	assert.Equal(t, len(missing), 0)
}

func TestOrderedIndexDuplicateKeys(t *testing.T) {
	nonUnique := mustIndex(t, []primitives.ColumnID{0}, false)

	// a non-unique index stores several locations per key in insertion order
	if err := nonUnique.InsertEntry(intKey(t, nonUnique, 7), loc(1, 0)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := nonUnique.InsertEntry(intKey(t, nonUnique, 7), loc(1, 1)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	locations, err := nonUnique.Search(intKey(t, nonUnique, 7))
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	assert.Equal(t, locations, []primitives.ItemPointer{loc(1, 0), loc(1, 1)})

	// a unique index rejects the second entry
	unique := mustIndex(t, []primitives.ColumnID{0}, true)
	if err := unique.InsertEntry(intKey(t, unique, 7), loc(1, 0)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	err = unique.InsertEntry(intKey(t, unique, 7), loc(1, 1))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	assert.Equal(t, unique.Size(), 1)
}

func TestOrderedIndexRangeSearch(t *testing.T) {
	idx := mustIndex(t, []primitives.ColumnID{0}, true)

	for _, v := range []int32{50, 10, 30, 20, 40} {
		if err := idx.InsertEntry(intKey(t, idx, v), loc(1, primitives.SlotID(v))); err != nil {
			t.Fatalf("insert %d failed: %v", v, err)
		}
	}

	tests := []struct {
		name     string
		lo, hi   *tuple.Tuple
		expected []primitives.SlotID
	}{
		{
			name:     "interior range",
			lo:       intKey(t, idx, 15),
			hi:       intKey(t, idx, 40),
			expected: []primitives.SlotID{20, 30, 40},
		},
		{
			name:     "open low end",
			hi:       intKey(t, idx, 20),
			expected: []primitives.SlotID{10, 20},
		},
		{
			name:     "open high end",
			lo:       intKey(t, idx, 40),
			expected: []primitives.SlotID{40, 50},
		},
		{
			name:     "full range",
			expected: []primitives.SlotID{10, 20, 30, 40, 50},
		},
		{
			name:     "empty range",
			lo:       intKey(t, idx, 60),
			expected: []primitives.SlotID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locations, err := idx.SearchRange(tt.lo, tt.hi)
			if err != nil {
				t.Fatalf("range search failed: %v", err)
			}

			offsets := make([]primitives.SlotID, 0, len(locations))
			for _, l := range locations {
				offsets = append(offsets, l.Offset)
			}
			assert.Equal(t, offsets, tt.expected)
		})
	}
}

func TestOrderedIndexDelete(t *testing.T) {
	idx := mustIndex(t, []primitives.ColumnID{0}, false)

	if err := idx.InsertEntry(intKey(t, idx, 5), loc(1, 0)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := idx.InsertEntry(intKey(t, idx, 5), loc(1, 1)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// delete removes only the matching (key, location) pair
	if err := idx.DeleteEntry(intKey(t, idx, 5), loc(1, 0)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	locations, _ := idx.Search(intKey(t, idx, 5))
	assert.Equal(t, locations, []primitives.ItemPointer{loc(1, 1)})

	// deleting an absent entry is a no-op
	if err := idx.DeleteEntry(intKey(t, idx, 5), loc(9, 9)); err != nil {
		t.Fatalf("delete of absent entry failed: %v", err)
	}
	assert.Equal(t, idx.Size(), 1)
}

func TestOrderedIndexReplace(t *testing.T) {
	idx := mustIndex(t, []primitives.ColumnID{0}, true)

	if err := idx.InsertEntry(intKey(t, idx, 5), loc(1, 0)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := idx.ReplaceEntry(intKey(t, idx, 5), loc(1, 0), loc(2, 7)); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	locations, _ := idx.Search(intKey(t, idx, 5))
	assert.Equal(t, locations, []primitives.ItemPointer{loc(2, 7)})

	if err := idx.ReplaceEntry(intKey(t, idx, 5), loc(1, 0), loc(3, 3)); err == nil {
		t.Errorf("expected error replacing a stale location")
	}
}

func TestOrderedIndexKeySchemaMismatch(t *testing.T) {
	idx := mustIndex(t, []primitives.ColumnID{0}, true)

	wrong := tuple.NewTuple(mustTableSchema(t))
	if err := idx.InsertEntry(wrong, loc(1, 0)); err == nil {
		t.Errorf("expected error for key schema mismatch")
	}
}

func TestOrderedIndexCompositeKey(t *testing.T) {
	idx := mustIndex(t, []primitives.ColumnID{0, 1}, false)

	key := func(a, b int32) *tuple.Tuple {
		k := tuple.NewTuple(idx.Metadata().KeySchema)
		if err := k.SetField(0, types.NewInt32Field(a)); err != nil {
			t.Fatalf("failed to build key: %v", err)
		}
		if err := k.SetField(1, types.NewInt32Field(b)); err != nil {
			t.Fatalf("failed to build key: %v", err)
		}
		return k
	}

	if err := idx.InsertEntry(key(1, 2), loc(1, 0)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := idx.InsertEntry(key(1, 3), loc(1, 1)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := idx.InsertEntry(key(2, 1), loc(1, 2)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// (1,2) and (1,3) fall inside [(1,1), (1,9)]; (2,1) does not
	locations, err := idx.SearchRange(key(1, 1), key(1, 9))
	if err != nil {
		t.Fatalf("range search failed: %v", err)
	}
	assert.Equal(t, locations, []primitives.ItemPointer{loc(1, 0), loc(1, 1)})
}
