package tile

import (
	"fmt"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/types"
)

// PhysicalTile is a column-major storage block holding a fixed number of
// tuple slots for a fixed schema fragment. The tile owns its backing storage:
// one value vector per column, each sized to the tuple capacity.
//
// Mutation discipline: SetValue at a given (slot, column) address is only
// performed by the thread that owns that slot's insert until the insert
// commits; afterwards the slot is read-only. The tile therefore carries no
// lock of its own.
type PhysicalTile struct {
	schema   *schema.Schema
	capacity primitives.SlotID
	columns  [][]types.Field // column-major backing storage
}

// NewPhysicalTile allocates a tile for the given schema fragment and tuple
// capacity.
func NewPhysicalTile(s *schema.Schema, capacity primitives.SlotID) (*PhysicalTile, error) {
	if s == nil {
		return nil, fmt.Errorf("tile schema cannot be nil")
	}
	if capacity == 0 || capacity == primitives.InvalidSlotID {
		return nil, fmt.Errorf("invalid tile capacity %d", capacity)
	}

	columns := make([][]types.Field, s.NumColumns())
	for i := range columns {
		columns[i] = make([]types.Field, capacity)
	}

	return &PhysicalTile{
		schema:   s,
		capacity: capacity,
		columns:  columns,
	}, nil
}

// Schema returns the schema fragment this tile stores.
func (t *PhysicalTile) Schema() *schema.Schema {
	return t.schema
}

// Capacity returns the number of tuple slots in this tile.
func (t *PhysicalTile) Capacity() primitives.SlotID {
	return t.capacity
}

// NumColumns returns the number of columns in this tile's fragment.
func (t *PhysicalTile) NumColumns() primitives.ColumnID {
	return t.schema.NumColumns()
}

// GetValue returns the value stored at (slot, column). A nil result with no
// error means NULL.
func (t *PhysicalTile) GetValue(slot primitives.SlotID, col primitives.ColumnID) (types.Field, error) {
	if slot >= t.capacity {
		return nil, fmt.Errorf("slot %d out of bounds [0, %d)", slot, t.capacity)
	}
	if int(col) >= len(t.columns) {
		return nil, fmt.Errorf("column id %d out of bounds [0, %d)", col, len(t.columns))
	}
	return t.columns[col][slot], nil
}

// SetValue stores a value at (slot, column). A nil value stores NULL; a
// non-nil value must match the column's declared type.
func (t *PhysicalTile) SetValue(value types.Field, slot primitives.SlotID, col primitives.ColumnID) error {
	if slot >= t.capacity {
		return fmt.Errorf("slot %d out of bounds [0, %d)", slot, t.capacity)
	}
	if int(col) >= len(t.columns) {
		return fmt.Errorf("column id %d out of bounds [0, %d)", col, len(t.columns))
	}

	if value != nil {
		expectedType, err := t.schema.TypeOf(col)
		if err != nil {
			return err
		}
		if value.Type() != expectedType {
			return fmt.Errorf("value type mismatch at column %d: expected %v, got %v",
				col, expectedType, value.Type())
		}
	}

	t.columns[col][slot] = value
	return nil
}
