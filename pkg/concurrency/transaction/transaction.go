package transaction

import (
	"fmt"
	"sync"
	"tilestore/pkg/primitives"
)

// Transaction tracks the tuple slots a single transaction has inserted and
// deleted, so the manager can stamp visibility on commit or undo on abort.
// The storage core provides the mechanical redo/undo paths; visibility
// policy lives in the manager.
type Transaction struct {
	id primitives.TxnID

	mu       sync.Mutex
	inserted []primitives.ItemPointer
	deleted  []primitives.ItemPointer
	done     bool
}

// ID returns the transaction id.
func (txn *Transaction) ID() primitives.TxnID {
	return txn.id
}

// RecordInsert notes a slot this transaction inserted.
func (txn *Transaction) RecordInsert(loc primitives.ItemPointer) {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.inserted = append(txn.inserted, loc)
}

// RecordDelete notes a slot this transaction deleted.
func (txn *Transaction) RecordDelete(loc primitives.ItemPointer) {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.deleted = append(txn.deleted, loc)
}

// InsertedTuples returns the recorded inserts.
func (txn *Transaction) InsertedTuples() []primitives.ItemPointer {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	out := make([]primitives.ItemPointer, len(txn.inserted))
	copy(out, txn.inserted)
	return out
}

// DeletedTuples returns the recorded deletes.
func (txn *Transaction) DeletedTuples() []primitives.ItemPointer {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	out := make([]primitives.ItemPointer, len(txn.deleted))
	copy(out, txn.deleted)
	return out
}

// finish marks the transaction completed; committing or aborting twice is an
// error.
func (txn *Transaction) finish() error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	if txn.done {
		return fmt.Errorf("transaction %d already finished", txn.id)
	}
	txn.done = true
	return nil
}

func (txn *Transaction) String() string {
	return fmt.Sprintf("TXN-%d", txn.id)
}
