package types

import (
	"io"
	"math"
	"strconv"
)

const (
	epsilon = 1e-9
)

type Float64Field struct {
	Value float64
}

func NewFloat64Field(value float64) *Float64Field {
	return &Float64Field{Value: value}
}

func (f *Float64Field) Serialize(w io.Writer) error {
	return serializeUint64(w, math.Float64bits(f.Value))
}

func (f *Float64Field) Compare(op Predicate, other Field) (bool, error) {
	otherField, ok := other.(*Float64Field)
	if !ok {
		return false, nil
	}

	switch op {
	case Equals:
		return math.Abs(f.Value-otherField.Value) < epsilon, nil
	case NotEqual:
		return math.Abs(f.Value-otherField.Value) >= epsilon, nil
	default:
		return compareOrdered(f.Value, otherField.Value, op), nil
	}
}

func (f *Float64Field) Type() Type {
	return Float64Type
}

func (f *Float64Field) String() string {
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

func (f *Float64Field) Equals(other Field) bool {
	otherField, ok := other.(*Float64Field)
	if !ok {
		return false
	}
	return math.Abs(f.Value-otherField.Value) < epsilon
}

func (f *Float64Field) Length() uint32 {
	return 8
}
