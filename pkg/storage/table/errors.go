package table

import "errors"

// Constraint violations are recoverable at the transaction level: the
// operation that detects one rolls back its own partial mutations before
// returning, so the caller only has to abort.
var (
	// ErrNullViolation reports a NULL value in a non-nullable column.
	ErrNullViolation = errors.New("null value in non-nullable column")

	// ErrUniqueKeyViolation reports a key collision in a unique index.
	ErrUniqueKeyViolation = errors.New("unique key constraint violation")
)
