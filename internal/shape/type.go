// internal/shape/type.go
package shape

import (
	"fmt"
	"math"
)

// Type is the element type of a shape. The string form is the name used in
// attributes and graph files.
type Type string

const (
	Bool   Type = "bool_type"
	Half   Type = "half_type"
	Float  Type = "float_type"
	Double Type = "double_type"
	Uint8  Type = "uint8_type"
	Int8   Type = "int8_type"
	Uint16 Type = "uint16_type"
	Int16  Type = "int16_type"
	Int32  Type = "int32_type"
	Int64  Type = "int64_type"
	Uint32 Type = "uint32_type"
	Uint64 Type = "uint64_type"
	Tuple  Type = "tuple_type"
)

type typeInfo struct {
	size     int
	min, max float64
	integer  bool
}

var types = map[Type]typeInfo{
	Bool:   {size: 1, min: 0, max: 1, integer: true},
	Half:   {size: 2, min: -65504, max: 65504},
	Float:  {size: 4, min: -math.MaxFloat32, max: math.MaxFloat32},
	Double: {size: 8, min: -math.MaxFloat64, max: math.MaxFloat64},
	Uint8:  {size: 1, min: 0, max: math.MaxUint8, integer: true},
	Int8:   {size: 1, min: math.MinInt8, max: math.MaxInt8, integer: true},
	Uint16: {size: 2, min: 0, max: math.MaxUint16, integer: true},
	Int16:  {size: 2, min: math.MinInt16, max: math.MaxInt16, integer: true},
	Int32:  {size: 4, min: math.MinInt32, max: math.MaxInt32, integer: true},
	Int64:  {size: 8, min: math.MinInt64, max: math.MaxInt64, integer: true},
	Uint32: {size: 4, min: 0, max: math.MaxUint32, integer: true},
	Uint64: {size: 8, min: 0, max: math.MaxUint64, integer: true},
}

// ParseType resolves a type name such as "float_type".
func ParseType(name string) (Type, error) {
	t := Type(name)
	if t == Tuple {
		return t, nil
	}
	if _, ok := types[t]; !ok {
		return "", fmt.Errorf("unknown element type %q", name)
	}
	return t, nil
}

// Valid reports whether t names a known element type (tuple included).
func (t Type) Valid() bool {
	_, ok := types[t]
	return ok || t == Tuple
}

// Size returns the size of one element in bytes. Tuples report 0.
func (t Type) Size() int { return types[t].size }

// Min returns the lowest representable value of t.
func (t Type) Min() float64 { return types[t].min }

// Max returns the highest representable value of t.
func (t Type) Max() float64 { return types[t].max }

// IsInteger reports whether t stores integral values. Bool counts as integral.
func (t Type) IsInteger() bool { return types[t].integer }

// IsFloat reports whether t is one of the floating point types.
func (t Type) IsFloat() bool {
	return t == Half || t == Float || t == Double
}

func (t Type) String() string { return string(t) }
