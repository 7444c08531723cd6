package primitives

import "fmt"

// ItemPointer is the stable address of a tuple: the tile group that holds it
// plus the slot offset inside that group. It is the value type stored in
// indexes and the handle returned by table inserts. Once assigned to a tuple
// it never changes.
type ItemPointer struct {
	BlockID TileGroupID
	Offset  SlotID
}

// InvalidItemPointer is returned by operations that failed to place a tuple.
var InvalidItemPointer = ItemPointer{BlockID: InvalidTileGroupID, Offset: InvalidSlotID}

// IsValid reports whether this pointer addresses a real slot.
func (ip ItemPointer) IsValid() bool {
	return ip.BlockID != InvalidTileGroupID && ip.Offset != InvalidSlotID
}

func (ip ItemPointer) String() string {
	return fmt.Sprintf("(%d, %d)", ip.BlockID, ip.Offset)
}
