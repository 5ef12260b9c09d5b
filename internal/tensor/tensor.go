// internal/tensor/tensor.go
package tensor

import (
	"fmt"
	"slices"

	"github.com/vk/graphc/internal/shape"
)

// Tensor is a host buffer interpreted through a shape. Elements are held as
// float64 and rounded to the element type on every write. Views share the
// underlying buffer. Tuple tensors hold their elements instead of data.
type Tensor struct {
	shape shape.Shape
	data  []float64
	elems []Tensor
}

// New allocates a zero-filled tensor for s.
func New(s shape.Shape) Tensor {
	if s.IsTuple() {
		subs := s.SubShapes()
		elems := make([]Tensor, len(subs))
		for i, sub := range subs {
			elems[i] = New(sub)
		}
		return Tensor{shape: s, elems: elems}
	}
	return Tensor{shape: s, data: make([]float64, s.ElementSpace())}
}

// FromValues builds a tensor whose logical elements, in row-major order, are
// values. s may have any layout.
func FromValues(s shape.Shape, values []float64) (Tensor, error) {
	if s.IsTuple() {
		return Tensor{}, fmt.Errorf("cannot fill tuple shape from values")
	}
	if len(values) != s.Elements() {
		return Tensor{}, fmt.Errorf("shape %s needs %d values, got %d", s, s.Elements(), len(values))
	}
	return Generate(s, func(_ []int, n int) float64 { return values[n] }), nil
}

// Scalar returns a one-element tensor.
func Scalar(t shape.Type, v float64) Tensor {
	out := New(shape.New(t))
	out.data[0] = Cast(t, v)
	return out
}

// Tuple groups tensors into a tuple tensor.
func Tuple(elems ...Tensor) Tensor {
	subs := make([]shape.Shape, len(elems))
	for i, e := range elems {
		subs[i] = e.shape
	}
	return Tensor{shape: shape.NewTuple(subs...), elems: slices.Clone(elems)}
}

// Generate creates a tensor of shape s, computing each logical element from
// its multi-index and its row-major element number.
func Generate(s shape.Shape, fn func(idx []int, n int) float64) Tensor {
	out := New(s)
	t := s.Type()
	for n := range s.Elements() {
		idx := s.Multi(n)
		out.data[s.Index(idx)] = Cast(t, fn(idx, n))
	}
	return out
}

// Shape returns the tensor shape.
func (t Tensor) Shape() shape.Shape { return t.shape }

// At reads the element at a multi-index.
func (t Tensor) At(idx ...int) float64 {
	return t.data[t.shape.Index(idx)]
}

// Values returns the logical elements in row-major order.
func (t Tensor) Values() []float64 {
	n := t.shape.Elements()
	out := make([]float64, n)
	for i := range n {
		out[i] = t.data[t.shape.Index(t.shape.Multi(i))]
	}
	return out
}

// Elements returns the members of a tuple tensor.
func (t Tensor) Elements() []Tensor { return slices.Clone(t.elems) }

// Element returns member i of a tuple tensor.
func (t Tensor) Element(i int) Tensor { return t.elems[i] }

// View reinterprets the buffer through another shape of the same type. It
// panics if s addresses storage beyond the buffer.
func (t Tensor) View(s shape.Shape) Tensor {
	if s.ElementSpace() > len(t.data) {
		panic(fmt.Sprintf("tensor: view %s exceeds buffer of %d elements", s, len(t.data)))
	}
	return Tensor{shape: s, data: t.data}
}

// Contiguous copies the tensor into a standard layout.
func (t Tensor) Contiguous() Tensor {
	return t.Map(t.shape.AsStandard(), func(v float64) float64 { return v })
}

// Convert copies the tensor into a standard layout of another element type.
func (t Tensor) Convert(typ shape.Type) Tensor {
	return t.Map(t.shape.AsStandard().WithType(typ), func(v float64) float64 { return v })
}

// Map applies fn elementwise, writing into a fresh tensor of shape out. out
// must have the same lens as t.
func (t Tensor) Map(out shape.Shape, fn func(float64) float64) Tensor {
	return Generate(out, func(idx []int, _ int) float64 { return fn(t.At(idx...)) })
}

// Zip applies fn to the elements of a and b at equal positions.
func Zip(out shape.Shape, a, b Tensor, fn func(x, y float64) float64) Tensor {
	return Generate(out, func(idx []int, _ int) float64 { return fn(a.At(idx...), b.At(idx...)) })
}

func (t Tensor) String() string {
	if t.shape.IsTuple() {
		return fmt.Sprintf("tuple%v", t.elems)
	}
	return fmt.Sprintf("%s %v", t.shape, t.Values())
}
