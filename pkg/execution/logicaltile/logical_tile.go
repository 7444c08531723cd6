package logicaltile

import (
	"fmt"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/tile"
	"tilestore/pkg/types"
)

// columnMapping ties one logical column to its origin: the referenced
// physical tile, the column position inside that tile, and a validity bit.
// Invalidated columns stay addressable (plans built before a projection prune
// may still reference them by position) but are excluded from iteration and
// materialization.
type columnMapping struct {
	ref    TileRef
	origin primitives.ColumnID
	valid  bool
}

// LogicalTile is a read-only view over one or more physical tiles. It holds
// no tuple data of its own unless a column references an owned tile; it maps
// each logical column back to (tile, origin column) and keeps the ordered
// sequence of selected row slots.
//
// A logical tile is single-threaded: it belongs to one operator pipeline
// instance at a time.
type LogicalTile struct {
	columns []columnMapping
	rows    []primitives.SlotID
}

// NewLogicalTile creates an empty logical tile with no columns and no
// selected rows.
func NewLogicalTile() *LogicalTile {
	return &LogicalTile{}
}

// AddColumn appends a logical column mapping to the given tile and origin
// column. The new column is valid.
func (lt *LogicalTile) AddColumn(ref TileRef, origin primitives.ColumnID) {
	lt.columns = append(lt.columns, columnMapping{ref: ref, origin: origin, valid: true})
}

// NumCols returns the number of logical columns, including invalidated ones.
func (lt *LogicalTile) NumCols() primitives.ColumnID {
	return primitives.ColumnID(len(lt.columns))
}

// GetBaseTile returns the physical tile owning the given logical column.
func (lt *LogicalTile) GetBaseTile(col primitives.ColumnID) (*tile.PhysicalTile, error) {
	if int(col) >= len(lt.columns) {
		return nil, fmt.Errorf("logical column %d out of bounds [0, %d)", col, len(lt.columns))
	}
	return lt.columns[col].ref.Tile(), nil
}

// GetOriginColumnID returns the column position of the given logical column
// inside its owning tile.
func (lt *LogicalTile) GetOriginColumnID(col primitives.ColumnID) (primitives.ColumnID, error) {
	if int(col) >= len(lt.columns) {
		return primitives.InvalidColumnID, fmt.Errorf("logical column %d out of bounds [0, %d)", col, len(lt.columns))
	}
	return lt.columns[col].origin, nil
}

// IsValid reports whether the given logical column is still valid.
// Out-of-range columns report false.
func (lt *LogicalTile) IsValid(col primitives.ColumnID) bool {
	if int(col) >= len(lt.columns) {
		return false
	}
	return lt.columns[col].valid
}

// InvalidateColumn marks a logical column as pruned. The column remains
// addressable by position.
func (lt *LogicalTile) InvalidateColumn(col primitives.ColumnID) error {
	if int(col) >= len(lt.columns) {
		return fmt.Errorf("logical column %d out of bounds [0, %d)", col, len(lt.columns))
	}
	lt.columns[col].valid = false
	return nil
}

// SelectRows replaces the selected-row sequence. Rows are slot ids in the
// referenced tiles; iteration yields them in this order.
func (lt *LogicalTile) SelectRows(rows []primitives.SlotID) {
	lt.rows = make([]primitives.SlotID, len(rows))
	copy(lt.rows, rows)
}

// SelectedRowCount returns the number of currently selected rows.
func (lt *LogicalTile) SelectedRowCount() int {
	return len(lt.rows)
}

// Iterator returns a restartable iterator over the selected rows. Multiple
// passes over the same logical tile yield the same sequence unless the tile
// is re-filtered in between.
func (lt *LogicalTile) Iterator() *RowIterator {
	return &RowIterator{rows: lt.rows}
}

// GetValue returns the value at (selected slot, logical column), resolved
// through the column mapping. The row argument is a slot id as produced by
// the iterator, not a dense position.
func (lt *LogicalTile) GetValue(row primitives.SlotID, col primitives.ColumnID) (types.Field, error) {
	if int(col) >= len(lt.columns) {
		return nil, fmt.Errorf("logical column %d out of bounds [0, %d)", col, len(lt.columns))
	}
	mapping := lt.columns[col]
	return mapping.ref.Tile().GetValue(row, mapping.origin)
}

// PhysicalSchema infers the schema a materialized copy of this tile would
// have: the column descriptors of all valid columns, in logical order.
func (lt *LogicalTile) PhysicalSchema() (*schema.Schema, error) {
	columns := make([]schema.Column, 0, len(lt.columns))
	for _, mapping := range lt.columns {
		if !mapping.valid {
			continue
		}
		col, err := mapping.ref.Tile().Schema().GetColumn(mapping.origin)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("logical tile has no valid columns")
	}
	return schema.NewSchema(columns)
}

// RowIterator yields a logical tile's selected slot ids in selection order.
type RowIterator struct {
	rows []primitives.SlotID
	pos  int
}

// HasNext reports whether another row is available.
func (it *RowIterator) HasNext() bool {
	return it.pos < len(it.rows)
}

// Next returns the next selected slot id, or false when exhausted.
func (it *RowIterator) Next() (primitives.SlotID, bool) {
	if it.pos >= len(it.rows) {
		return primitives.InvalidSlotID, false
	}
	row := it.rows[it.pos]
	it.pos++
	return row, true
}

// Restart rewinds the iterator to the first selected row.
func (it *RowIterator) Restart() {
	it.pos = 0
}
