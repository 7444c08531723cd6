package types

import (
	"io"
	"strings"
)

// StringMaxSize defines the default maximum size for string fields in bytes.
const (
	StringMaxSize = 256
)

// StringField represents a variable-length string field type.
type StringField struct {
	Value   string // The string value stored in this field
	MaxSize uint32 // The maximum allowed size for this string field in bytes
}

// NewStringField creates a new StringField instance with the specified string
// value and maximum size. If the provided value exceeds the maximum size, it
// will be truncated to fit.
func NewStringField(value string, maxSize uint32) *StringField {
	if uint32(len(value)) > maxSize {
		value = value[:maxSize]
	}

	return &StringField{
		Value:   value,
		MaxSize: maxSize,
	}
}

// Compare performs a lexicographic comparison between this StringField and
// another Field using the specified predicate.
func (s *StringField) Compare(op Predicate, other Field) (bool, error) {
	otherStringField, ok := other.(*StringField)
	if !ok {
		return false, nil
	}

	cmp := strings.Compare(s.Value, otherStringField.Value)

	switch op {
	case Equals:
		return cmp == 0, nil

	case LessThan:
		return cmp < 0, nil

	case GreaterThan:
		return cmp > 0, nil

	case LessThanOrEqual:
		return cmp <= 0, nil

	case GreaterThanOrEqual:
		return cmp >= 0, nil

	case NotEqual:
		return cmp != 0, nil

	default:
		return false, nil
	}
}

// Serialize writes the string field to the provided writer in binary format:
// a 4-byte big-endian length followed by the string bytes and padding up to
// MaxSize.
func (s *StringField) Serialize(w io.Writer) error {
	if err := serializeUint32(w, uint32(len(s.Value))); err != nil {
		return err
	}

	padded := make([]byte, s.MaxSize)
	copy(padded, s.Value)
	_, err := w.Write(padded)
	return err
}

func (s *StringField) Type() Type {
	return VarcharType
}

func (s *StringField) String() string {
	return s.Value
}

func (s *StringField) Equals(other Field) bool {
	otherField, ok := other.(*StringField)
	if !ok {
		return false
	}
	return s.Value == otherField.Value
}

func (s *StringField) Length() uint32 {
	return 4 + s.MaxSize
}
