// Package directory maintains the mapping from tile-group ids to live tile
// groups, so that an ItemPointer can be resolved to storage without going
// through its owning table. Lookups are served from a ristretto cache backed
// by an authoritative map; the cache absorbs the read traffic of hot groups,
// the map guarantees every registered group stays resolvable.
package directory

import (
	"fmt"
	"sync"
	"sync/atomic"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/tile"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	// cache bookkeeping sized for ~100k live groups
	cacheNumCounters = 1_000_000
	cacheBufferItems = 64
)

// Directory issues tile-group ids and resolves them back to tile groups. A
// directory may be shared by several tables; ids it issues are unique across
// all of them.
type Directory struct {
	mu     sync.RWMutex
	groups map[primitives.TileGroupID]*tile.TileGroup

	cache  *ristretto.Cache[uint64, *tile.TileGroup]
	nextID atomic.Uint64
}

// NewDirectory creates a directory whose lookup cache holds at most maxCached
// tile-group entries.
func NewDirectory(maxCached int64) (*Directory, error) {
	if maxCached <= 0 {
		return nil, fmt.Errorf("invalid directory cache size %d", maxCached)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *tile.TileGroup]{
		NumCounters: cacheNumCounters,
		MaxCost:     maxCached,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create directory cache: %w", err)
	}

	return &Directory{
		groups: make(map[primitives.TileGroupID]*tile.TileGroup),
		cache:  cache,
	}, nil
}

// NextTileGroupID issues a fresh tile-group id. Ids start at 1; 0 is the
// invalid sentinel.
func (d *Directory) NextTileGroupID() primitives.TileGroupID {
	return primitives.TileGroupID(d.nextID.Add(1))
}

// Register records a tile group under its id.
func (d *Directory) Register(tg *tile.TileGroup) error {
	if tg == nil {
		return fmt.Errorf("cannot register nil tile group")
	}
	if tg.ID() == primitives.InvalidTileGroupID {
		return fmt.Errorf("cannot register tile group with invalid id")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.groups[tg.ID()]; exists {
		return fmt.Errorf("tile group %d already registered", tg.ID())
	}
	d.groups[tg.ID()] = tg
	return nil
}

// Lookup resolves a tile-group id.
func (d *Directory) Lookup(id primitives.TileGroupID) (*tile.TileGroup, bool) {
	if tg, ok := d.cache.Get(uint64(id)); ok {
		return tg, true
	}

	d.mu.RLock()
	tg, ok := d.groups[id]
	d.mu.RUnlock()

	if ok {
		d.cache.Set(uint64(id), tg, 1)
	}
	return tg, ok
}

// Resolve returns the tile group and slot addressed by an ItemPointer.
func (d *Directory) Resolve(loc primitives.ItemPointer) (*tile.TileGroup, primitives.SlotID, error) {
	if !loc.IsValid() {
		return nil, primitives.InvalidSlotID, fmt.Errorf("cannot resolve invalid item pointer")
	}

	tg, ok := d.Lookup(loc.BlockID)
	if !ok {
		return nil, primitives.InvalidSlotID, fmt.Errorf("tile group %d not registered", loc.BlockID)
	}
	if loc.Offset >= tg.Capacity() {
		return nil, primitives.InvalidSlotID, fmt.Errorf("slot %d out of bounds for tile group %d", loc.Offset, loc.BlockID)
	}
	return tg, loc.Offset, nil
}

// Size returns the number of registered tile groups.
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.groups)
}

// Close releases the lookup cache.
func (d *Directory) Close() {
	d.cache.Close()
}
