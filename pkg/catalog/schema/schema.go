package schema

import (
	"fmt"
	"strings"
	"tilestore/pkg/primitives"
	"tilestore/pkg/types"

	"github.com/jinzhu/copier"
)

// Schema is an ordered, immutable sequence of column descriptors. It is used
// both for full table layouts and for the schema fragments held by individual
// physical tiles.
type Schema struct {
	columns []Column
}

// NewSchema creates a schema from the given columns. The column order is the
// schema's column order.
func NewSchema(columns []Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema must have at least one column")
	}

	copied := make([]Column, len(columns))
	copy(copied, columns)
	return &Schema{columns: copied}, nil
}

// NumColumns returns the number of columns in this schema.
func (s *Schema) NumColumns() primitives.ColumnID {
	return primitives.ColumnID(len(s.columns))
}

// GetColumn returns the descriptor of the column at the given position.
func (s *Schema) GetColumn(id primitives.ColumnID) (Column, error) {
	if int(id) >= len(s.columns) {
		return Column{}, fmt.Errorf("column id %d out of bounds [0, %d)", id, len(s.columns))
	}
	return s.columns[id], nil
}

// TypeOf returns the type of the column at the given position.
func (s *Schema) TypeOf(id primitives.ColumnID) (types.Type, error) {
	col, err := s.GetColumn(id)
	if err != nil {
		return 0, err
	}
	return col.Type, nil
}

// IsNullable reports whether the column at the given position accepts nulls.
// Out-of-range positions report false.
func (s *Schema) IsNullable(id primitives.ColumnID) bool {
	if int(id) >= len(s.columns) {
		return false
	}
	return s.columns[id].Nullable
}

// Append concatenates this schema with the given schemas, in order. The
// result describes the combined layout of a tile group whose tiles carry the
// individual fragments.
func (s *Schema) Append(others ...*Schema) (*Schema, error) {
	combined := make([]Column, 0, len(s.columns))
	combined = append(combined, s.columns...)
	for _, other := range others {
		if other == nil {
			return nil, fmt.Errorf("cannot append nil schema")
		}
		combined = append(combined, other.columns...)
	}
	return NewSchema(combined)
}

// AppendSchemas concatenates a list of schema fragments into one combined
// schema.
func AppendSchemas(schemas []*Schema) (*Schema, error) {
	if len(schemas) == 0 {
		return nil, fmt.Errorf("cannot combine an empty schema list")
	}
	return schemas[0].Append(schemas[1:]...)
}

// Project builds a new schema containing deep copies of the columns at the
// given positions, in the given order. Used to derive index key schemas from
// a table schema.
func (s *Schema) Project(ids []primitives.ColumnID) (*Schema, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("projection must select at least one column")
	}

	projected := make([]Column, len(ids))
	for i, id := range ids {
		col, err := s.GetColumn(id)
		if err != nil {
			return nil, err
		}

		var copied Column
		if err := copier.CopyWithOption(&copied, &col, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("failed to copy column %d: %w", id, err)
		}
		projected[i] = copied
	}

	return NewSchema(projected)
}

// Equals reports whether two schemas have identical column descriptors.
func (s *Schema) Equals(other *Schema) bool {
	if other == nil || len(s.columns) != len(other.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != other.columns[i] {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	parts := make([]string, len(s.columns))
	for i, col := range s.columns {
		parts[i] = col.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
