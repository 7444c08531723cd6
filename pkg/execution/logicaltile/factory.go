package logicaltile

import (
	"fmt"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/tile"
)

// WrapTiles builds a logical tile over every column of the given physical
// tiles, in tile order, selecting rows [0, rowCount). With owned=true the
// logical tile takes ownership of the tiles (the materialized-result case);
// otherwise it borrows them.
func WrapTiles(tiles []*tile.PhysicalTile, owned bool, rowCount primitives.SlotID) (*LogicalTile, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("cannot wrap an empty tile list")
	}

	lt := NewLogicalTile()
	for _, t := range tiles {
		if t == nil {
			return nil, fmt.Errorf("cannot wrap nil tile")
		}
		if rowCount > t.Capacity() {
			return nil, fmt.Errorf("row count %d exceeds tile capacity %d", rowCount, t.Capacity())
		}

		var ref TileRef
		if owned {
			ref = Own(t)
		} else {
			ref = Borrow(t)
		}
		for col := primitives.ColumnID(0); col < t.NumColumns(); col++ {
			lt.AddColumn(ref, col)
		}
	}

	rows := make([]primitives.SlotID, rowCount)
	for i := range rows {
		rows[i] = primitives.SlotID(i)
	}
	lt.rows = rows
	return lt, nil
}

// WrapTileGroup builds a logical tile viewing every combined-schema column of
// a tile group, selecting exactly the given visible slots. The group keeps
// ownership of its tiles.
func WrapTileGroup(tg *tile.TileGroup, visible []primitives.SlotID) (*LogicalTile, error) {
	if tg == nil {
		return nil, fmt.Errorf("cannot wrap nil tile group")
	}

	lt := NewLogicalTile()
	for col := primitives.ColumnID(0); col < tg.Schema().NumColumns(); col++ {
		loc, err := tg.LocateColumn(col)
		if err != nil {
			return nil, err
		}
		base, err := tg.GetTile(loc.TileOffset)
		if err != nil {
			return nil, err
		}
		lt.AddColumn(Borrow(base), loc.TileColumn)
	}

	lt.SelectRows(visible)
	return lt, nil
}
