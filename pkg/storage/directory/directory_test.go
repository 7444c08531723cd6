package directory

import (
	"testing"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/tile"
	"tilestore/pkg/types"

	"github.com/magiconair/properties/assert"
)

func mustGroup(t *testing.T, id primitives.TileGroupID) *tile.TileGroup {
	t.Helper()

	col, err := schema.NewColumn("COL_A", types.Int32Type, false)
	if err != nil {
		t.Fatalf("failed to create column: %v", err)
	}
	s, err := schema.NewSchema([]schema.Column{col})
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	tg, err := tile.NewTileGroup(id, []*schema.Schema{s}, 8)
	if err != nil {
		t.Fatalf("failed to create tile group: %v", err)
	}
	return tg
}

func mustDirectory(t *testing.T) *Directory {
	t.Helper()

	d, err := NewDirectory(1 << 10)
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestNewDirectoryValidation(t *testing.T) {
	if _, err := NewDirectory(0); err == nil {
		t.Errorf("expected error for zero cache size")
	}
	if _, err := NewDirectory(-5); err == nil {
		t.Errorf("expected error for negative cache size")
	}
}

func TestNextTileGroupIDSkipsSentinel(t *testing.T) {
	d := mustDirectory(t)

	first := d.NextTileGroupID()
	if first == primitives.InvalidTileGroupID {
		t.Errorf("issued id must not be the invalid sentinel")
	}
	if second := d.NextTileGroupID(); second <= first {
		t.Errorf("ids must increase: %d then %d", first, second)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	d := mustDirectory(t)

	id := d.NextTileGroupID()
	tg := mustGroup(t, id)
	if err := d.Register(tg); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	assert.Equal(t, d.Size(), 1)

	got, ok := d.Lookup(id)
	if !ok || got != tg {
		t.Errorf("lookup should return the registered group")
	}

	// repeated lookups stay correct once the cache has absorbed the entry
	for i := 0; i < 10; i++ {
		got, ok = d.Lookup(id)
		if !ok || got != tg {
			t.Fatalf("lookup %d returned wrong group", i)
		}
	}

	if _, ok := d.Lookup(999); ok {
		t.Errorf("lookup of unknown id should miss")
	}
}

func TestRegisterRejectsDuplicatesAndInvalid(t *testing.T) {
	d := mustDirectory(t)

	if err := d.Register(nil); err == nil {
		t.Errorf("expected error registering nil group")
	}
	if err := d.Register(mustGroup(t, primitives.InvalidTileGroupID)); err == nil {
		t.Errorf("expected error registering the invalid id")
	}

	id := d.NextTileGroupID()
	if err := d.Register(mustGroup(t, id)); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := d.Register(mustGroup(t, id)); err == nil {
		t.Errorf("expected error registering a duplicate id")
	}
}

func TestResolve(t *testing.T) {
	d := mustDirectory(t)

	id := d.NextTileGroupID()
	tg := mustGroup(t, id)
	if err := d.Register(tg); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, slot, err := d.Resolve(primitives.ItemPointer{BlockID: id, Offset: 3})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != tg {
		t.Errorf("resolve returned wrong group")
	}
	assert.Equal(t, slot, primitives.SlotID(3))

	if _, _, err := d.Resolve(primitives.InvalidItemPointer); err == nil {
		t.Errorf("expected error resolving the invalid pointer")
	}
	if _, _, err := d.Resolve(primitives.ItemPointer{BlockID: 999, Offset: 0}); err == nil {
		t.Errorf("expected error resolving an unregistered group")
	}
	if _, _, err := d.Resolve(primitives.ItemPointer{BlockID: id, Offset: 8}); err == nil {
		t.Errorf("expected error resolving a slot beyond capacity")
	}
}
