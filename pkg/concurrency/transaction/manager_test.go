package transaction

import (
	"testing"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/directory"
	"tilestore/pkg/storage/table"
	"tilestore/pkg/tuple"
	"tilestore/pkg/types"

	"github.com/magiconair/properties/assert"
)

// testEnv wires a table, its directory, and a manager sharing that
// directory.
type testEnv struct {
	dir *directory.Directory
	tbl *table.Table
	mgr *Manager
}

func mustEnv(t *testing.T) *testEnv {
	t.Helper()

	dir, err := directory.NewDirectory(1 << 10)
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	col, err := schema.NewColumn("COL_A", types.Int32Type, false)
	if err != nil {
		t.Fatalf("failed to create column: %v", err)
	}
	s, err := schema.NewSchema([]schema.Column{col})
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	tbl, err := table.NewTable(table.Config{
		Name:               "txn_table",
		Schema:             s,
		TuplesPerTileGroup: 16,
		Directory:          dir,
	})
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	mgr, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return &testEnv{dir: dir, tbl: tbl, mgr: mgr}
}

func (e *testEnv) insert(t *testing.T, txn *Transaction, v int32) primitives.ItemPointer {
	t.Helper()

	tu := tuple.NewTuple(e.tbl.Schema())
	if err := tu.SetField(0, types.NewInt32Field(v)); err != nil {
		t.Fatalf("failed to set field: %v", err)
	}
	loc, err := e.tbl.InsertTuple(txn.ID(), tu)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	txn.RecordInsert(loc)
	return loc
}

func TestManagerRequiresDirectory(t *testing.T) {
	if _, err := NewManager(nil, nil); err == nil {
		t.Errorf("expected error for nil directory")
	}
}

func TestBeginIssuesMonotonicIDs(t *testing.T) {
	env := mustEnv(t)

	first := env.mgr.Begin()
	second := env.mgr.Begin()

	if first.ID() == primitives.InvalidTxnID {
		t.Errorf("transaction id must not be the invalid sentinel")
	}
	if second.ID() <= first.ID() {
		t.Errorf("transaction ids must increase: %d then %d", first.ID(), second.ID())
	}
}

func TestCommitStampsInsertedTuples(t *testing.T) {
	env := mustEnv(t)

	txn := env.mgr.Begin()
	locA := env.insert(t, txn, 1)
	locB := env.insert(t, txn, 2)

	// before commit the slots carry the txn id and no begin commit id
	tg, slot, err := env.dir.Resolve(locA)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	assert.Equal(t, tg.InsertTxnID(slot), txn.ID())
	if tg.IsCommitted(slot) {
		t.Errorf("slot must not be visible before commit")
	}

	commitID, err := env.mgr.Commit(txn)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if commitID == primitives.InvalidCommitID {
		t.Fatalf("commit returned the invalid sentinel")
	}

	for _, loc := range []primitives.ItemPointer{locA, locB} {
		tg, slot, err := env.dir.Resolve(loc)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if !tg.IsCommitted(slot) {
			t.Errorf("slot %s should be visible after commit", loc)
		}
		assert.Equal(t, tg.BeginCommitID(slot), commitID)
	}
}

func TestCommitTombstonesDeletedTuples(t *testing.T) {
	env := mustEnv(t)

	writer := env.mgr.Begin()
	loc := env.insert(t, writer, 7)
	if _, err := env.mgr.Commit(writer); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	deleter := env.mgr.Begin()
	deleter.RecordDelete(loc)
	commitID, err := env.mgr.Commit(deleter)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	tg, slot, err := env.dir.Resolve(loc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !tg.IsDeleted(slot) {
		t.Errorf("slot should carry a tombstone after the deleting commit")
	}
	assert.Equal(t, tg.EndCommitID(slot), commitID)

	// the tombstone leaves the stored data intact
	got, err := tg.GetValue(slot, 0)
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if !got.Equals(types.NewInt32Field(7)) {
		t.Errorf("expected 7, got %v", got)
	}
}

func TestAbortLeavesSlotsInvisible(t *testing.T) {
	env := mustEnv(t)

	txn := env.mgr.Begin()
	loc := env.insert(t, txn, 9)

	if err := env.mgr.Abort(txn); err != nil {
		t.Fatalf("abort failed: %v", err)
	}

	tg, slot, err := env.dir.Resolve(loc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if tg.IsCommitted(slot) {
		t.Errorf("aborted slot must never become visible")
	}
	assert.Equal(t, tg.InsertTxnID(slot), txn.ID())
}

func TestFinishIsTerminal(t *testing.T) {
	env := mustEnv(t)

	txn := env.mgr.Begin()
	if _, err := env.mgr.Commit(txn); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if _, err := env.mgr.Commit(txn); err == nil {
		t.Errorf("expected error committing twice")
	}

	txn = env.mgr.Begin()
	if err := env.mgr.Abort(txn); err != nil {
		t.Fatalf("abort failed: %v", err)
	}
	if _, err := env.mgr.Commit(txn); err == nil {
		t.Errorf("expected error committing an aborted transaction")
	}
}

func TestCommitIDsAdvancePerCommit(t *testing.T) {
	env := mustEnv(t)

	first := env.mgr.Begin()
	env.insert(t, first, 1)
	firstCommit, err := env.mgr.Commit(first)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	second := env.mgr.Begin()
	env.insert(t, second, 2)
	secondCommit, err := env.mgr.Commit(second)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if secondCommit <= firstCommit {
		t.Errorf("commit ids must increase: %d then %d", firstCommit, secondCommit)
	}
}
