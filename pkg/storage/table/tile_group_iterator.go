package table

import "tilestore/pkg/storage/tile"

// TileGroupIterator walks a table's tile groups in append order. Groups
// appended after the iterator was created are picked up if the walk has not
// passed their position yet.
type TileGroupIterator struct {
	table *Table
	pos   int
}

// NewTileGroupIterator creates an iterator positioned before the first group.
func NewTileGroupIterator(t *Table) *TileGroupIterator {
	return &TileGroupIterator{table: t}
}

// HasNext reports whether another tile group is available.
func (it *TileGroupIterator) HasNext() bool {
	return it.pos < it.table.NumTileGroups()
}

// Next returns the next tile group, or false when the walk is done.
func (it *TileGroupIterator) Next() (*tile.TileGroup, bool) {
	tg, err := it.table.GetTileGroup(it.pos)
	if err != nil {
		return nil, false
	}
	it.pos++
	return tg, true
}
