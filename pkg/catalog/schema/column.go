package schema

import (
	"fmt"
	"tilestore/pkg/types"
)

// Column describes a single column: its type, byte width, nullability and
// whether the value is stored inline in the tile or behind a pointer.
type Column struct {
	Name     string
	Type     types.Type
	Length   uint32 // byte width; for varchar the declared maximum length
	Nullable bool
	Inlined  bool
}

// NewColumn creates a column descriptor for a fixed-size type. The byte
// width is derived from the type.
func NewColumn(name string, fieldType types.Type, nullable bool) (Column, error) {
	if name == "" {
		return Column{}, fmt.Errorf("column name cannot be empty")
	}

	if !types.IsValidType(fieldType) {
		return Column{}, fmt.Errorf("invalid field type for column %q", name)
	}

	if fieldType == types.VarcharType {
		return Column{}, fmt.Errorf("varchar column %q requires an explicit length, use NewVarcharColumn", name)
	}

	return Column{
		Name:     name,
		Type:     fieldType,
		Length:   types.TypeSize(fieldType),
		Nullable: nullable,
		Inlined:  true,
	}, nil
}

// NewVarcharColumn creates a variable-length string column with the given
// maximum length. Varchar values are stored uninlined.
func NewVarcharColumn(name string, length uint32, nullable bool) (Column, error) {
	if name == "" {
		return Column{}, fmt.Errorf("column name cannot be empty")
	}

	if length == 0 {
		return Column{}, fmt.Errorf("varchar column %q must have a non-zero length", name)
	}

	return Column{
		Name:     name,
		Type:     types.VarcharType,
		Length:   length,
		Nullable: nullable,
		Inlined:  false,
	}, nil
}

func (c Column) String() string {
	return fmt.Sprintf("%s %s(%d)", c.Name, c.Type, c.Length)
}
