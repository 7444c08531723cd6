package tile

import (
	"fmt"
	"sync/atomic"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/tuple"
	"tilestore/pkg/types"
)

// TileLocation addresses a combined-schema column inside a tile group: which
// tile holds it, and at which column position within that tile's fragment.
type TileLocation struct {
	TileOffset int
	TileColumn primitives.ColumnID
}

// TileGroup is a horizontal partition of a table. It owns an ordered set of
// physical tiles whose schema fragments concatenate to the group's combined
// schema and share one tuple-slot address space, plus per-slot transactional
// metadata.
//
// Slot allocation is lock-free: a bounded compare-and-swap on the slot cursor
// reserves each slot exactly once and never lets the cursor exceed capacity.
// A full group is sealed; the owning table reacts by appending a new group.
type TileGroup struct {
	id          primitives.TileGroupID
	capacity    primitives.SlotID
	tiles       []*PhysicalTile
	tileSchemas []*schema.Schema
	combined    *schema.Schema
	columnMap   []TileLocation

	// shared slot-count cursor, advanced by CAS only
	nextSlot atomic.Uint32

	// per-slot transactional metadata, element-wise atomic
	insertTxn   []uint64
	beginCommit []uint64
	endCommit   []uint64
}

// NewTileGroup creates a tile group with one physical tile per schema
// fragment, each sized to the given tuple capacity.
func NewTileGroup(id primitives.TileGroupID, schemas []*schema.Schema, capacity primitives.SlotID) (*TileGroup, error) {
	if len(schemas) == 0 {
		return nil, fmt.Errorf("tile group requires at least one schema fragment")
	}

	combined, err := schema.AppendSchemas(schemas)
	if err != nil {
		return nil, err
	}

	tiles := make([]*PhysicalTile, len(schemas))
	columnMap := make([]TileLocation, 0, combined.NumColumns())
	for i, fragment := range schemas {
		t, err := NewPhysicalTile(fragment, capacity)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate tile %d: %w", i, err)
		}
		tiles[i] = t

		for col := primitives.ColumnID(0); col < fragment.NumColumns(); col++ {
			columnMap = append(columnMap, TileLocation{TileOffset: i, TileColumn: col})
		}
	}

	tg := &TileGroup{
		id:          id,
		capacity:    capacity,
		tiles:       tiles,
		tileSchemas: schemas,
		combined:    combined,
		columnMap:   columnMap,
		insertTxn:   make([]uint64, capacity),
		beginCommit: make([]uint64, capacity),
		endCommit:   make([]uint64, capacity),
	}

	for i := primitives.SlotID(0); i < capacity; i++ {
		tg.beginCommit[i] = uint64(primitives.InvalidCommitID)
		tg.endCommit[i] = uint64(primitives.InvalidCommitID)
	}

	return tg, nil
}

// ID returns the group's identifier.
func (tg *TileGroup) ID() primitives.TileGroupID {
	return tg.id
}

// Capacity returns the number of tuple slots in this group.
func (tg *TileGroup) Capacity() primitives.SlotID {
	return tg.capacity
}

// Schema returns the group's combined schema.
func (tg *TileGroup) Schema() *schema.Schema {
	return tg.combined
}

// TileSchemas returns the schema fragments of this group's tiles, in tile
// order.
func (tg *TileGroup) TileSchemas() []*schema.Schema {
	return tg.tileSchemas
}

// TileCount returns the number of physical tiles in this group.
func (tg *TileGroup) TileCount() int {
	return len(tg.tiles)
}

// GetTile returns the physical tile at the given offset.
func (tg *TileGroup) GetTile(offset int) (*PhysicalTile, error) {
	if offset < 0 || offset >= len(tg.tiles) {
		return nil, fmt.Errorf("tile offset %d out of bounds [0, %d)", offset, len(tg.tiles))
	}
	return tg.tiles[offset], nil
}

// LocateColumn maps a combined-schema column to its owning tile and the
// column position within that tile.
func (tg *TileGroup) LocateColumn(col primitives.ColumnID) (TileLocation, error) {
	if int(col) >= len(tg.columnMap) {
		return TileLocation{}, fmt.Errorf("column id %d out of bounds [0, %d)", col, len(tg.columnMap))
	}
	return tg.columnMap[col], nil
}

// ActiveTupleCount returns the number of slots allocated so far.
func (tg *TileGroup) ActiveTupleCount() primitives.SlotID {
	allocated := tg.nextSlot.Load()
	if allocated > uint32(tg.capacity) {
		return tg.capacity
	}
	return primitives.SlotID(allocated)
}

// allocateSlot reserves the next free slot. Returns InvalidSlotID when the
// group is at capacity. The CAS loop keeps the cursor monotone and bounded.
func (tg *TileGroup) allocateSlot() primitives.SlotID {
	for {
		current := tg.nextSlot.Load()
		if current >= uint32(tg.capacity) {
			return primitives.InvalidSlotID
		}
		if tg.nextSlot.CompareAndSwap(current, current+1) {
			return primitives.SlotID(current)
		}
	}
}

// InsertTuple reserves the next free slot, copies the tuple's column values
// into the appropriate tiles, and stamps the slot's insert transaction id.
// The slot stays invisible to readers until CommitInsertedTuple stamps its
// begin commit id.
//
// Returns InvalidSlotID when the group is full.
func (tg *TileGroup) InsertTuple(txnID primitives.TxnID, t *tuple.Tuple) (primitives.SlotID, error) {
	if t.NumColumns() != tg.combined.NumColumns() {
		return primitives.InvalidSlotID, fmt.Errorf("tuple width %d does not match tile group schema width %d",
			t.NumColumns(), tg.combined.NumColumns())
	}

	slot := tg.allocateSlot()
	if slot == primitives.InvalidSlotID {
		return primitives.InvalidSlotID, nil
	}

	for col := primitives.ColumnID(0); col < t.NumColumns(); col++ {
		value, err := t.GetField(col)
		if err != nil {
			return primitives.InvalidSlotID, err
		}

		loc := tg.columnMap[col]
		if err := tg.tiles[loc.TileOffset].SetValue(value, slot, loc.TileColumn); err != nil {
			return primitives.InvalidSlotID, err
		}
	}

	atomic.StoreUint64(&tg.insertTxn[slot], uint64(txnID))
	atomic.StoreUint64(&tg.beginCommit[slot], uint64(primitives.InvalidCommitID))
	atomic.StoreUint64(&tg.endCommit[slot], uint64(primitives.InvalidCommitID))
	return slot, nil
}

// CommitInsertedTuple stamps the slot's begin commit id, making the insert
// eligible for snapshot visibility.
func (tg *TileGroup) CommitInsertedTuple(slot primitives.SlotID, commitID primitives.CommitID) error {
	if err := tg.checkSlot(slot); err != nil {
		return err
	}
	atomic.StoreUint64(&tg.beginCommit[slot], uint64(commitID))
	return nil
}

// DeleteTuple tombstones a slot by stamping its end commit id. The slot data
// is left in place so concurrent readers holding an earlier snapshot are
// unaffected.
func (tg *TileGroup) DeleteTuple(slot primitives.SlotID, commitID primitives.CommitID) error {
	if err := tg.checkSlot(slot); err != nil {
		return err
	}
	atomic.StoreUint64(&tg.endCommit[slot], uint64(commitID))
	return nil
}

// InsertTxnID returns the id of the transaction that wrote the slot.
func (tg *TileGroup) InsertTxnID(slot primitives.SlotID) primitives.TxnID {
	if slot >= tg.capacity {
		return primitives.InvalidTxnID
	}
	return primitives.TxnID(atomic.LoadUint64(&tg.insertTxn[slot]))
}

// BeginCommitID returns the slot's visibility commit id, or InvalidCommitID
// if the insert has not committed.
func (tg *TileGroup) BeginCommitID(slot primitives.SlotID) primitives.CommitID {
	if slot >= tg.capacity {
		return primitives.InvalidCommitID
	}
	return primitives.CommitID(atomic.LoadUint64(&tg.beginCommit[slot]))
}

// EndCommitID returns the slot's tombstone commit id, or InvalidCommitID if
// the slot has not been deleted.
func (tg *TileGroup) EndCommitID(slot primitives.SlotID) primitives.CommitID {
	if slot >= tg.capacity {
		return primitives.InvalidCommitID
	}
	return primitives.CommitID(atomic.LoadUint64(&tg.endCommit[slot]))
}

// IsCommitted reports whether the slot's insert has committed. Exact
// snapshot-visibility comparison against a reader's commit id is the
// transaction manager's concern; the group only stores the ids.
func (tg *TileGroup) IsCommitted(slot primitives.SlotID) bool {
	return tg.BeginCommitID(slot) != primitives.InvalidCommitID
}

// IsDeleted reports whether the slot carries a tombstone.
func (tg *TileGroup) IsDeleted(slot primitives.SlotID) bool {
	return tg.EndCommitID(slot) != primitives.InvalidCommitID
}

// GetValue returns the value stored at (slot, combined-schema column).
func (tg *TileGroup) GetValue(slot primitives.SlotID, col primitives.ColumnID) (types.Field, error) {
	loc, err := tg.LocateColumn(col)
	if err != nil {
		return nil, err
	}
	return tg.tiles[loc.TileOffset].GetValue(slot, loc.TileColumn)
}

func (tg *TileGroup) checkSlot(slot primitives.SlotID) error {
	if slot >= tg.capacity {
		return fmt.Errorf("slot %d out of bounds [0, %d)", slot, tg.capacity)
	}
	if uint32(slot) >= tg.nextSlot.Load() {
		return fmt.Errorf("slot %d has not been allocated", slot)
	}
	return nil
}
