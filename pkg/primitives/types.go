package primitives

import "math"

// TxnID identifies the transaction that wrote a tuple slot.
type TxnID uint64

// CommitID is a timestamp-like marker controlling whether a tuple slot is
// visible to a reader's snapshot. A slot carries a begin commit id (stamped
// when its insert commits) and an end commit id (stamped when a delete
// tombstones it).
type CommitID uint64

// TileGroupID identifies a tile group. Ids are issued by the tile-group
// directory and are unique across all tables sharing that directory.
type TileGroupID uint64

// SlotID is a tuple slot offset within a tile group's shared slot space.
type SlotID uint32

// ColumnID identifies a column within a schema or tile.
type ColumnID uint32

// Sentinel values for invalid/unset identifiers
const (
	InvalidTxnID TxnID = 0

	// InvalidCommitID marks a slot whose insert has not committed yet
	// (or whose delete has not happened). Uses MaxUint64 so that every
	// real commit id orders before it.
	InvalidCommitID CommitID = math.MaxUint64

	InvalidTileGroupID TileGroupID = 0

	InvalidSlotID SlotID = math.MaxUint32

	InvalidColumnID ColumnID = math.MaxUint32
)
