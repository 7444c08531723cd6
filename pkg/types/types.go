package types

type Type int

const (
	Int32Type Type = iota
	Float64Type
	VarcharType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case Int32Type:
		return "INT32_TYPE"
	case Float64Type:
		return "FLOAT64_TYPE"
	case VarcharType:
		return "VARCHAR_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// IsValidType reports whether t is one of the supported storage types.
func IsValidType(t Type) bool {
	return t == Int32Type || t == Float64Type || t == VarcharType
}

// TypeSize returns the inlined byte width of fixed-size types. Varchar
// columns carry their own length in the column descriptor, so TypeSize
// returns 0 for them.
func TypeSize(t Type) uint32 {
	switch t {
	case Int32Type:
		return 4
	case Float64Type:
		return 8
	default:
		return 0
	}
}
