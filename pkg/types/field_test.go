package types

import (
	"bytes"
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestInt32FieldCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int32
		op       Predicate
		expected bool
	}{
		{name: "equal", a: 5, b: 5, op: Equals, expected: true},
		{name: "not equal", a: 5, b: 6, op: Equals, expected: false},
		{name: "less than", a: 5, b: 6, op: LessThan, expected: true},
		{name: "greater than", a: 7, b: 6, op: GreaterThan, expected: true},
		{name: "less or equal boundary", a: 6, b: 6, op: LessThanOrEqual, expected: true},
		{name: "greater or equal", a: 5, b: 6, op: GreaterThanOrEqual, expected: false},
		{name: "not equal predicate", a: 5, b: 6, op: NotEqual, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewInt32Field(tt.a).Compare(tt.op, NewInt32Field(tt.b))
			if err != nil {
				t.Fatalf("compare failed: %v", err)
			}
			assert.Equal(t, got, tt.expected)
		})
	}

	// cross-type comparison is false, not an error
	got, err := NewInt32Field(1).Compare(Equals, NewFloat64Field(1))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if got {
		t.Errorf("cross-type comparison should be false")
	}
}

func TestFloat64FieldEpsilon(t *testing.T) {
	a := NewFloat64Field(1.0)
	b := NewFloat64Field(1.0 + 1e-12)
	c := NewFloat64Field(1.1)

	if !a.Equals(b) {
		t.Errorf("values within epsilon should be equal")
	}
	if a.Equals(c) {
		t.Errorf("distinct values should not be equal")
	}

	got, err := a.Compare(LessThan, c)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !got {
		t.Errorf("1.0 should be less than 1.1")
	}
}

func TestStringFieldTruncation(t *testing.T) {
	f := NewStringField("hello world", 5)
	assert.Equal(t, f.Value, "hello")
	assert.Equal(t, f.Length(), uint32(9))

	short := NewStringField("hi", 5)
	assert.Equal(t, short.Value, "hi")
}

func TestStringFieldSerialize(t *testing.T) {
	f := NewStringField("abc", 5)

	var buf bytes.Buffer
	if err := f.Serialize(&buf); err != nil {
		t.Fatalf("serialize failed: %v", err)
	}

	// 4-byte length prefix plus MaxSize padded bytes
	assert.Equal(t, buf.Len(), 9)
	assert.Equal(t, buf.Bytes()[3], byte(3))
	assert.Equal(t, string(buf.Bytes()[4:7]), "abc")
}

func TestTypeSize(t *testing.T) {
	assert.Equal(t, TypeSize(Int32Type), uint32(4))
	assert.Equal(t, TypeSize(Float64Type), uint32(8))

	if !IsValidType(VarcharType) {
		t.Errorf("varchar should be a valid type")
	}
	if IsValidType(Type(99)) {
		t.Errorf("unknown type should be invalid")
	}
}
