package tuple

import (
	"fmt"
	"strings"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/types"
)

// Tuple is an ephemeral, schema-bound value vector. Tuples stage data on the
// way into a tile group or an index key; they are never stored directly —
// their values are copied into physical tile slots.
//
// A nil field denotes NULL.
type Tuple struct {
	schema *schema.Schema
	fields []types.Field
}

// NewTuple creates an empty tuple bound to the given schema.
func NewTuple(s *schema.Schema) *Tuple {
	return &Tuple{
		schema: s,
		fields: make([]types.Field, s.NumColumns()),
	}
}

// Schema returns the schema this tuple is bound to.
func (t *Tuple) Schema() *schema.Schema {
	return t.schema
}

// NumColumns returns the number of columns in this tuple.
func (t *Tuple) NumColumns() primitives.ColumnID {
	return primitives.ColumnID(len(t.fields))
}

// SetField stores a value at the given column. A nil field stores NULL; a
// non-nil field must match the column's declared type.
func (t *Tuple) SetField(id primitives.ColumnID, field types.Field) error {
	if int(id) >= len(t.fields) {
		return fmt.Errorf("column id %d out of bounds [0, %d)", id, len(t.fields))
	}

	if field != nil {
		expectedType, err := t.schema.TypeOf(id)
		if err != nil {
			return err
		}
		if field.Type() != expectedType {
			return fmt.Errorf("field type mismatch at column %d: expected %v, got %v",
				id, expectedType, field.Type())
		}
	}

	t.fields[id] = field
	return nil
}

// GetField returns the value at the given column. A nil result with no error
// means the column holds NULL.
func (t *Tuple) GetField(id primitives.ColumnID) (types.Field, error) {
	if int(id) >= len(t.fields) {
		return nil, fmt.Errorf("column id %d out of bounds [0, %d)", id, len(t.fields))
	}
	return t.fields[id], nil
}

// IsNull reports whether the column at the given position holds NULL.
// Out-of-range positions report true.
func (t *Tuple) IsNull(id primitives.ColumnID) bool {
	if int(id) >= len(t.fields) {
		return true
	}
	return t.fields[id] == nil
}

// Project builds a new tuple over the projected schema, copying the values at
// the given column positions in order. Used to construct index key tuples.
func (t *Tuple) Project(keySchema *schema.Schema, ids []primitives.ColumnID) (*Tuple, error) {
	if primitives.ColumnID(len(ids)) != keySchema.NumColumns() {
		return nil, fmt.Errorf("projection column count %d does not match key schema width %d",
			len(ids), keySchema.NumColumns())
	}

	key := NewTuple(keySchema)
	for i, id := range ids {
		field, err := t.GetField(id)
		if err != nil {
			return nil, err
		}
		if err := key.SetField(primitives.ColumnID(i), field); err != nil {
			return nil, err
		}
	}
	return key, nil
}

// Clone creates a copy of this tuple. Field values are shared; fields are
// immutable so sharing is safe.
func (t *Tuple) Clone() *Tuple {
	clone := NewTuple(t.schema)
	copy(clone.fields, t.fields)
	return clone
}

// String returns a tab-separated representation, one field per column.
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, field := range t.fields {
		if field != nil {
			parts[i] = field.String()
		} else {
			parts[i] = "null"
		}
	}
	return strings.Join(parts, "\t")
}
