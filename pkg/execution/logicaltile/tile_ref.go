package logicaltile

import "tilestore/pkg/storage/tile"

// TileRef is a reference from a logical column to the physical tile that
// stores it. The two implementations distinguish ownership: a materialized
// result owns its freshly built tile, a view borrows tiles owned by a tile
// group elsewhere.
type TileRef interface {
	Tile() *tile.PhysicalTile

	// Owned reports whether the logical tile holding this reference owns
	// the physical tile's storage.
	Owned() bool
}

// OwnedTile is a reference to a tile whose storage belongs to the logical
// tile holding it.
type OwnedTile struct {
	tile *tile.PhysicalTile
}

// Own wraps a physical tile whose ownership transfers to the logical tile.
func Own(t *tile.PhysicalTile) OwnedTile {
	return OwnedTile{tile: t}
}

func (r OwnedTile) Tile() *tile.PhysicalTile { return r.tile }

func (r OwnedTile) Owned() bool { return true }

// BorrowedTile is a non-owning reference to a tile owned elsewhere, which
// must outlive the logical tile.
type BorrowedTile struct {
	tile *tile.PhysicalTile
}

// Borrow wraps a physical tile without taking ownership.
func Borrow(t *tile.PhysicalTile) BorrowedTile {
	return BorrowedTile{tile: t}
}

func (r BorrowedTile) Tile() *tile.PhysicalTile { return r.tile }

func (r BorrowedTile) Owned() bool { return false }
