package table

import (
	"errors"
	"fmt"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/directory"
	"tilestore/pkg/storage/index"
	"tilestore/pkg/storage/tile"
	"tilestore/pkg/tuple"

	"github.com/rs/zerolog"
	lock "github.com/viney-shih/go-lock"
)

// DefaultTuplesPerTileGroup is the tuple capacity of tile groups appended by
// AddDefaultTileGroup when the table config does not override it.
const DefaultTuplesPerTileGroup primitives.SlotID = 1000

// DefaultDirectoryCacheSize bounds the lookup cache of a directory the table
// creates for itself.
const DefaultDirectoryCacheSize = 1 << 16

// Config carries everything needed to construct a table. Schema is
// mandatory; zero values elsewhere select defaults.
type Config struct {
	Name   string
	Schema *schema.Schema

	// TileSchemas gives the vertical split of the table schema across the
	// physical tiles of each group. Their concatenation must equal Schema.
	// When empty, each group holds a single tile covering the full schema.
	TileSchemas []*schema.Schema

	// TuplesPerTileGroup is the slot capacity of each appended group.
	TuplesPerTileGroup primitives.SlotID

	// Directory resolves ItemPointers; it may be shared between tables.
	// When nil the table creates a private one.
	Directory *directory.Directory

	Logger *zerolog.Logger
}

// Table owns an ordered, append-only collection of tile groups plus the
// table's indexes. The group list is guarded by a table-wide lock held only
// for the append step; slot writes inside an already-published group never
// take it.
type Table struct {
	name        string
	schema      *schema.Schema
	tileSchemas []*schema.Schema

	tuplesPerTileGroup primitives.SlotID
	dir                *directory.Directory

	listLock   lock.RWMutex
	tileGroups []*tile.TileGroup

	indexes         []index.Index
	primaryKeyIndex index.Index

	logger zerolog.Logger
}

// NewTable constructs a table from an explicit configuration.
func NewTable(cfg Config) (*Table, error) {
	if cfg.Schema == nil {
		return nil, fmt.Errorf("table requires a schema")
	}

	tileSchemas := cfg.TileSchemas
	if len(tileSchemas) == 0 {
		tileSchemas = []*schema.Schema{cfg.Schema}
	}

	combined, err := schema.AppendSchemas(tileSchemas)
	if err != nil {
		return nil, err
	}
	if !combined.Equals(cfg.Schema) {
		return nil, fmt.Errorf("tile schemas do not concatenate to the table schema")
	}

	tuplesPerGroup := cfg.TuplesPerTileGroup
	if tuplesPerGroup == 0 {
		tuplesPerGroup = DefaultTuplesPerTileGroup
	}

	dir := cfg.Directory
	if dir == nil {
		dir, err = directory.NewDirectory(DefaultDirectoryCacheSize)
		if err != nil {
			return nil, err
		}
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Table{
		name:               cfg.Name,
		schema:             cfg.Schema,
		tileSchemas:        tileSchemas,
		tuplesPerTileGroup: tuplesPerGroup,
		dir:                dir,
		listLock:           lock.NewCASMutex(),
		logger:             logger.With().Str("table", cfg.Name).Logger(),
	}, nil
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Schema returns the table schema.
func (t *Table) Schema() *schema.Schema {
	return t.schema
}

// Directory returns the directory this table registers its groups with.
func (t *Table) Directory() *directory.Directory {
	return t.dir
}

// NumTileGroups returns the number of tile groups appended so far.
func (t *Table) NumTileGroups() int {
	t.listLock.RLock()
	defer t.listLock.RUnlock()
	return len(t.tileGroups)
}

// GetTileGroup returns the tile group at the given position in append order.
func (t *Table) GetTileGroup(offset int) (*tile.TileGroup, error) {
	t.listLock.RLock()
	defer t.listLock.RUnlock()

	if offset < 0 || offset >= len(t.tileGroups) {
		return nil, fmt.Errorf("tile group offset %d out of bounds [0, %d)", offset, len(t.tileGroups))
	}
	return t.tileGroups[offset], nil
}

// AddDefaultTileGroup appends a fresh tile group with the table's configured
// layout and capacity, registers it with the directory, and returns its id.
func (t *Table) AddDefaultTileGroup() (primitives.TileGroupID, error) {
	t.listLock.Lock()
	defer t.listLock.Unlock()
	return t.addTileGroupLocked()
}

// addTileGroupLocked appends a group. Caller must hold the list lock.
func (t *Table) addTileGroupLocked() (primitives.TileGroupID, error) {
	id := t.dir.NextTileGroupID()
	tg, err := tile.NewTileGroup(id, t.tileSchemas, t.tuplesPerTileGroup)
	if err != nil {
		return primitives.InvalidTileGroupID, err
	}
	if err := t.dir.Register(tg); err != nil {
		return primitives.InvalidTileGroupID, err
	}

	t.tileGroups = append(t.tileGroups, tg)
	t.logger.Debug().
		Uint64("tile_group", uint64(id)).
		Int("num_tile_groups", len(t.tileGroups)).
		Msg("appended tile group")
	return id, nil
}

// lastTileGroup returns the most recently appended group, or nil.
func (t *Table) lastTileGroup() *tile.TileGroup {
	t.listLock.RLock()
	defer t.listLock.RUnlock()

	if len(t.tileGroups) == 0 {
		return nil
	}
	return t.tileGroups[len(t.tileGroups)-1]
}

// growFrom appends a new group unless another thread already appended one
// after the full group the caller observed.
func (t *Table) growFrom(full *tile.TileGroup) error {
	t.listLock.Lock()
	defer t.listLock.Unlock()

	if len(t.tileGroups) > 0 {
		last := t.tileGroups[len(t.tileGroups)-1]
		if last != full {
			return nil
		}
	}
	_, err := t.addTileGroupLocked()
	return err
}

// InsertTuple places a tuple in the table and registers it in every index.
//
// A full tile group is handled internally by appending a new group and
// retrying; it never surfaces as an error. Constraint violations
// (ErrNullViolation, ErrUniqueKeyViolation) surface after any partial index
// mutation has been rolled back; the physical slot stays allocated but is
// never committed, so it stays invisible.
func (t *Table) InsertTuple(txnID primitives.TxnID, tu *tuple.Tuple) (primitives.ItemPointer, error) {
	loc, err := t.InsertVersion(txnID, tu)
	if err != nil {
		return primitives.InvalidItemPointer, err
	}

	if err := t.TryInsertInIndexes(tu, loc); err != nil {
		return primitives.InvalidItemPointer, err
	}

	t.logger.Trace().
		Uint64("txn", uint64(txnID)).
		Str("loc", loc.String()).
		Msg("inserted tuple")
	return loc, nil
}

// InsertVersion places a tuple physically without touching the indexes. The
// update path uses it to stage the new version of a tuple before repointing
// the indexes with UpdateInIndexes; the key stays the same, so running the
// new version through TryInsertInIndexes would trip its own unique check.
func (t *Table) InsertVersion(txnID primitives.TxnID, tu *tuple.Tuple) (primitives.ItemPointer, error) {
	if err := t.CheckNulls(tu); err != nil {
		return primitives.InvalidItemPointer, err
	}

	for {
		tg := t.lastTileGroup()
		if tg == nil {
			if _, err := t.AddDefaultTileGroup(); err != nil {
				return primitives.InvalidItemPointer, err
			}
			continue
		}

		slot, err := tg.InsertTuple(txnID, tu)
		if err != nil {
			return primitives.InvalidItemPointer, err
		}
		if slot == primitives.InvalidSlotID {
			if err := t.growFrom(tg); err != nil {
				return primitives.InvalidItemPointer, err
			}
			continue
		}

		return primitives.ItemPointer{BlockID: tg.ID(), Offset: slot}, nil
	}
}

// CheckNulls rejects a tuple holding NULL in any non-nullable column.
func (t *Table) CheckNulls(tu *tuple.Tuple) error {
	for col := primitives.ColumnID(0); col < t.schema.NumColumns(); col++ {
		if t.schema.IsNullable(col) {
			continue
		}
		if tu.IsNull(col) {
			column, _ := t.schema.GetColumn(col)
			return fmt.Errorf("%w: column %q", ErrNullViolation, column.Name)
		}
	}
	return nil
}

// TryInsertInIndexes registers the tuple's key in every index. If a unique
// index rejects the key, the entries already inserted for this tuple are
// removed before the violation is returned.
func (t *Table) TryInsertInIndexes(tu *tuple.Tuple, loc primitives.ItemPointer) error {
	for i, idx := range t.indexes {
		key, err := idx.Metadata().BuildKey(tu)
		if err != nil {
			t.rollbackIndexInserts(tu, loc, i)
			return err
		}

		if err := idx.InsertEntry(key, loc); err != nil {
			t.rollbackIndexInserts(tu, loc, i)
			if errors.Is(err, index.ErrDuplicateKey) {
				t.logger.Debug().
					Str("index", idx.Metadata().Name).
					Str("loc", loc.String()).
					Msg("unique key collision, insert rolled back")
				return fmt.Errorf("%w: %v", ErrUniqueKeyViolation, err)
			}
			return err
		}
	}
	return nil
}

// rollbackIndexInserts removes the entries inserted for tu at loc from the
// first n indexes.
func (t *Table) rollbackIndexInserts(tu *tuple.Tuple, loc primitives.ItemPointer, n int) {
	for i := 0; i < n; i++ {
		idx := t.indexes[i]
		key, err := idx.Metadata().BuildKey(tu)
		if err != nil {
			continue
		}
		if err := idx.DeleteEntry(key, loc); err != nil {
			t.logger.Error().
				Err(err).
				Str("index", idx.Metadata().Name).
				Msg("failed to roll back index entry")
		}
	}
}

// DeleteInIndexes removes the tuple's entry from every index.
func (t *Table) DeleteInIndexes(tu *tuple.Tuple, loc primitives.ItemPointer) error {
	for _, idx := range t.indexes {
		key, err := idx.Metadata().BuildKey(tu)
		if err != nil {
			return err
		}
		if err := idx.DeleteEntry(key, loc); err != nil {
			return err
		}
	}
	return nil
}

// UpdateInIndexes repoints the tuple's entry in every index from oldLoc to
// newLoc. Each index performs the swap under its own lock, so per index the
// update is atomic.
func (t *Table) UpdateInIndexes(tu *tuple.Tuple, newLoc, oldLoc primitives.ItemPointer) error {
	for _, idx := range t.indexes {
		key, err := idx.Metadata().BuildKey(tu)
		if err != nil {
			return err
		}
		if err := idx.ReplaceEntry(key, oldLoc, newLoc); err != nil {
			return err
		}
	}
	return nil
}

// AddIndex attaches an index to the table. The first unique index becomes
// the primary-key index.
func (t *Table) AddIndex(idx index.Index) {
	t.indexes = append(t.indexes, idx)
	if t.primaryKeyIndex == nil && idx.Metadata().Unique {
		t.primaryKeyIndex = idx
	}
}

// GetIndex returns the index at the given position in attach order.
func (t *Table) GetIndex(offset int) (index.Index, error) {
	if offset < 0 || offset >= len(t.indexes) {
		return nil, fmt.Errorf("index offset %d out of bounds [0, %d)", offset, len(t.indexes))
	}
	return t.indexes[offset], nil
}

// GetIndexCount returns the number of attached indexes.
func (t *Table) GetIndexCount() int {
	return len(t.indexes)
}

// GetPrimaryKeyIndex returns the designated primary-key index, or nil.
func (t *Table) GetPrimaryKeyIndex() index.Index {
	return t.primaryKeyIndex
}
