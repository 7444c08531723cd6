package types

import "io"

// Field is a single typed value. Fields are immutable once constructed; a
// nil Field denotes SQL NULL throughout the storage layer.
type Field interface {
	Serialize(w io.Writer) error

	Compare(op Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	// Length returns the serialized byte width of this field.
	Length() uint32
}
