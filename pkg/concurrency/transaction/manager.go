package transaction

import (
	"fmt"
	"sync/atomic"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/directory"

	"github.com/rs/zerolog"
)

// Manager issues transaction ids and commit ids and drives the tuple
// lifecycle: commit stamps visibility on every slot a transaction inserted
// and tombstones every slot it deleted; abort leaves inserted slots
// permanently invisible.
type Manager struct {
	dir    *directory.Directory
	logger zerolog.Logger

	nextTxnID    atomic.Uint64
	nextCommitID atomic.Uint64
}

// NewManager creates a manager resolving slots through the given directory.
func NewManager(dir *directory.Directory, logger *zerolog.Logger) (*Manager, error) {
	if dir == nil {
		return nil, fmt.Errorf("transaction manager requires a directory")
	}

	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &Manager{dir: dir, logger: log}, nil
}

// Begin starts a transaction with a fresh id.
func (m *Manager) Begin() *Transaction {
	return &Transaction{id: primitives.TxnID(m.nextTxnID.Add(1))}
}

// Commit makes the transaction's effects visible: every recorded insert gets
// the new commit id as its begin commit id, every recorded delete gets it as
// its end commit id.
func (m *Manager) Commit(txn *Transaction) (primitives.CommitID, error) {
	if err := txn.finish(); err != nil {
		return primitives.InvalidCommitID, err
	}

	commitID := primitives.CommitID(m.nextCommitID.Add(1))

	for _, loc := range txn.InsertedTuples() {
		tg, slot, err := m.dir.Resolve(loc)
		if err != nil {
			return primitives.InvalidCommitID, fmt.Errorf("commit of %s: %w", txn, err)
		}
		if err := tg.CommitInsertedTuple(slot, commitID); err != nil {
			return primitives.InvalidCommitID, fmt.Errorf("commit of %s: %w", txn, err)
		}
	}

	for _, loc := range txn.DeletedTuples() {
		tg, slot, err := m.dir.Resolve(loc)
		if err != nil {
			return primitives.InvalidCommitID, fmt.Errorf("commit of %s: %w", txn, err)
		}
		if err := tg.DeleteTuple(slot, commitID); err != nil {
			return primitives.InvalidCommitID, fmt.Errorf("commit of %s: %w", txn, err)
		}
	}

	m.logger.Debug().
		Uint64("txn", uint64(txn.ID())).
		Uint64("commit_id", uint64(commitID)).
		Int("inserts", len(txn.InsertedTuples())).
		Int("deletes", len(txn.DeletedTuples())).
		Msg("transaction committed")
	return commitID, nil
}

// Abort discards the transaction. Inserted slots never received a begin
// commit id, so they stay invisible to every reader; index cleanup is the
// caller's job via the table's DeleteInIndexes path, since the manager does
// not know which table each slot belongs to.
func (m *Manager) Abort(txn *Transaction) error {
	if err := txn.finish(); err != nil {
		return err
	}

	m.logger.Debug().
		Uint64("txn", uint64(txn.ID())).
		Int("inserts", len(txn.InsertedTuples())).
		Msg("transaction aborted")
	return nil
}
