// internal/shape/shape.go
package shape

import (
	"fmt"
	"slices"
	"strings"
)

// Shape describes the layout of an instruction result: an element type, the
// length of every dimension and the stride (in elements) of each dimension.
// A tuple shape carries sub-shapes instead of lens and strides.
//
// Shape is an immutable value; accessors return copies.
type Shape struct {
	typ     Type
	lens    []int
	strides []int
	subs    []Shape
}

// New creates a standard (row-major, packed) shape. Calling it without lens
// yields a one-element shape.
func New(t Type, lens ...int) Shape {
	if len(lens) == 0 {
		lens = []int{1}
	}
	return WithStrides(t, lens, rowMajor(lens))
}

// WithStrides creates a shape with explicit strides. It panics if lens and
// strides differ in length or a length is negative.
func WithStrides(t Type, lens, strides []int) Shape {
	if t == Tuple {
		panic("shape: tuple shapes are created with NewTuple")
	}
	if len(lens) != len(strides) {
		panic(fmt.Sprintf("shape: %d lens but %d strides", len(lens), len(strides)))
	}
	for _, l := range lens {
		if l < 0 {
			panic(fmt.Sprintf("shape: negative dimension %d", l))
		}
	}
	return Shape{typ: t, lens: slices.Clone(lens), strides: slices.Clone(strides)}
}

// NewTuple creates a tuple shape holding subs in order.
func NewTuple(subs ...Shape) Shape {
	return Shape{typ: Tuple, subs: slices.Clone(subs)}
}

func rowMajor(lens []int) []int {
	strides := make([]int, len(lens))
	acc := 1
	for i := len(lens) - 1; i >= 0; i-- {
		strides[i] = acc
		if lens[i] > 0 {
			acc *= lens[i]
		}
	}
	return strides
}

// Type returns the element type.
func (s Shape) Type() Type { return s.typ }

// Lens returns the dimension lengths.
func (s Shape) Lens() []int { return slices.Clone(s.lens) }

// Strides returns the per-dimension element steps.
func (s Shape) Strides() []int { return slices.Clone(s.strides) }

// Rank returns the number of dimensions.
func (s Shape) Rank() int { return len(s.lens) }

// IsZero reports whether s is the zero Shape value.
func (s Shape) IsZero() bool { return s.typ == "" }

// IsTuple reports whether s is a tuple shape.
func (s Shape) IsTuple() bool { return s.typ == Tuple }

// SubShapes returns the sub-shapes of a tuple.
func (s Shape) SubShapes() []Shape { return slices.Clone(s.subs) }

// Elements returns the number of logical elements. For a tuple it is the
// sum over the sub-shapes.
func (s Shape) Elements() int {
	if s.IsTuple() {
		n := 0
		for _, sub := range s.subs {
			n += sub.Elements()
		}
		return n
	}
	n := 1
	for _, l := range s.lens {
		n *= l
	}
	return n
}

// ElementSpace returns the number of storage slots addressed by the shape.
func (s Shape) ElementSpace() int {
	if s.IsTuple() {
		n := 0
		for _, sub := range s.subs {
			n += sub.ElementSpace()
		}
		return n
	}
	if s.Elements() == 0 {
		return 0
	}
	n := 1
	for i, l := range s.lens {
		n += (l - 1) * s.strides[i]
	}
	return n
}

// Bytes returns the storage size in bytes.
func (s Shape) Bytes() int {
	if s.IsTuple() {
		n := 0
		for _, sub := range s.subs {
			n += sub.Bytes()
		}
		return n
	}
	return s.ElementSpace() * s.typ.Size()
}

// Standard reports whether the strides are the row-major packing of the
// lens. Dimensions of length 1 never contribute to an address and are
// ignored.
func (s Shape) Standard() bool {
	if s.IsTuple() {
		for _, sub := range s.subs {
			if !sub.Standard() {
				return false
			}
		}
		return true
	}
	want := rowMajor(s.lens)
	for i, l := range s.lens {
		if l != 1 && s.strides[i] != want[i] {
			return false
		}
	}
	return true
}

// Packed reports whether every storage slot is used exactly once.
func (s Shape) Packed() bool {
	if s.IsTuple() {
		return false
	}
	return s.Elements() == s.ElementSpace() && !s.Broadcasted()
}

// Broadcasted reports whether any dimension longer than one has a zero stride.
func (s Shape) Broadcasted() bool {
	for i, l := range s.lens {
		if l > 1 && s.strides[i] == 0 {
			return true
		}
	}
	return false
}

// Transposed reports whether the strides of the addressed dimensions are not
// in descending order.
func (s Shape) Transposed() bool {
	var steps []int
	for i, l := range s.lens {
		if l > 1 && s.strides[i] != 0 {
			steps = append(steps, s.strides[i])
		}
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] > steps[i-1] {
			return true
		}
	}
	return false
}

// Scalar reports whether the shape holds exactly one element.
func (s Shape) Scalar() bool { return !s.IsTuple() && s.Elements() == 1 }

// AsStandard returns the standard shape with the same type and lens.
func (s Shape) AsStandard() Shape {
	if s.IsTuple() {
		subs := make([]Shape, len(s.subs))
		for i, sub := range s.subs {
			subs[i] = sub.AsStandard()
		}
		return NewTuple(subs...)
	}
	return WithStrides(s.typ, s.lens, rowMajor(s.lens))
}

// WithType returns a copy of s with a different element type.
func (s Shape) WithType(t Type) Shape {
	return WithStrides(t, s.lens, s.strides)
}

// Index returns the storage offset of a multi-dimensional index.
func (s Shape) Index(idx []int) int {
	off := 0
	for i, v := range idx {
		off += v * s.strides[i]
	}
	return off
}

// Multi converts a row-major logical element number into a multi-index.
func (s Shape) Multi(n int) []int {
	idx := make([]int, len(s.lens))
	for i := len(s.lens) - 1; i >= 0; i-- {
		if s.lens[i] == 0 {
			continue
		}
		idx[i] = n % s.lens[i]
		n /= s.lens[i]
	}
	return idx
}

// Equal reports whether two shapes have the same type, lens, strides and
// sub-shapes.
func (s Shape) Equal(o Shape) bool {
	if s.typ != o.typ || !slices.Equal(s.lens, o.lens) || !slices.Equal(s.strides, o.strides) {
		return false
	}
	return slices.EqualFunc(s.subs, o.subs, Shape.Equal)
}

// SameLayout reports whether two shapes agree on type and lens, ignoring
// strides.
func (s Shape) SameLayout(o Shape) bool {
	if s.IsTuple() || o.IsTuple() {
		return s.AsStandard().Equal(o.AsStandard())
	}
	return s.typ == o.typ && slices.Equal(s.lens, o.lens)
}

func (s Shape) String() string {
	if s.IsTuple() {
		parts := make([]string, len(s.subs))
		for i, sub := range s.subs {
			parts[i] = "{" + sub.String() + "}"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%s, %s, %s", s.typ, joinInts(s.lens), joinInts(s.strides))
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
