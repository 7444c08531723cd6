package index

import (
	"errors"
	"fmt"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/tuple"

	mapset "github.com/deckarep/golang-set"
)

// ErrDuplicateKey is returned by a unique index when an insert would add a
// second entry for an already-present key.
var ErrDuplicateKey = errors.New("duplicate key in unique index")

// Metadata describes an index: the indexed table's schema, the key columns,
// and whether keys must be unique.
type Metadata struct {
	Name        string
	TupleSchema *schema.Schema
	KeySchema   *schema.Schema
	KeyAttrs    []primitives.ColumnID
	Unique      bool

	keyAttrSet mapset.Set
}

// NewMetadata builds index metadata. The key schema is projected from the
// tuple schema using the given key attribute positions.
func NewMetadata(name string, tupleSchema *schema.Schema, keyAttrs []primitives.ColumnID, unique bool) (*Metadata, error) {
	if name == "" {
		return nil, fmt.Errorf("index name cannot be empty")
	}
	if tupleSchema == nil {
		return nil, fmt.Errorf("index %q requires a tuple schema", name)
	}

	keySchema, err := tupleSchema.Project(keyAttrs)
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", name, err)
	}

	attrSet := mapset.NewSet()
	for _, attr := range keyAttrs {
		attrSet.Add(attr)
	}

	copied := make([]primitives.ColumnID, len(keyAttrs))
	copy(copied, keyAttrs)

	return &Metadata{
		Name:        name,
		TupleSchema: tupleSchema,
		KeySchema:   keySchema,
		KeyAttrs:    copied,
		Unique:      unique,
		keyAttrSet:  attrSet,
	}, nil
}

// CoversColumn reports whether the given table column is part of this
// index's key.
func (m *Metadata) CoversColumn(col primitives.ColumnID) bool {
	return m.keyAttrSet.Contains(col)
}

// BuildKey projects an index key tuple out of a full table tuple.
func (m *Metadata) BuildKey(t *tuple.Tuple) (*tuple.Tuple, error) {
	return t.Project(m.KeySchema, m.KeyAttrs)
}

// Index maps key tuples to stable tuple locations. Implementations do their
// own locking; operations on unrelated keys must not serialize each other
// beyond that single index's own discipline.
type Index interface {
	// InsertEntry adds a (key, location) pair. A unique index rejects a
	// second entry for an existing key with ErrDuplicateKey.
	InsertEntry(key *tuple.Tuple, loc primitives.ItemPointer) error

	// DeleteEntry removes the entry matching both key and location.
	DeleteEntry(key *tuple.Tuple, loc primitives.ItemPointer) error

	// ReplaceEntry atomically repoints the entry for key from oldLoc to
	// newLoc: no observer sees neither-or-both states for that key.
	ReplaceEntry(key *tuple.Tuple, oldLoc, newLoc primitives.ItemPointer) error

	// Search returns the locations registered under a key, in insertion
	// order. An absent key yields an empty slice.
	Search(key *tuple.Tuple) ([]primitives.ItemPointer, error)

	// SearchRange returns the locations of all keys in [lo, hi], in key
	// order. A nil bound leaves that side open.
	SearchRange(lo, hi *tuple.Tuple) ([]primitives.ItemPointer, error)

	// Metadata returns the index's descriptor.
	Metadata() *Metadata

	// Size returns the number of entries currently stored.
	Size() int
}
