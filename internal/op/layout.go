package op

import (
	"slices"

	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// Broadcast aligns the input dimensions to dims starting at axis and
// replicates along every other dimension with a zero stride.
type Broadcast struct {
	Axis    int   `cty:"axis"`
	Dims    []int `cty:"dims"`
}

func (Broadcast) Name() string { return "broadcast" }

func (b Broadcast) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(b.Name(), inputs).has(1).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	in := inputs[0]
	if len(b.Dims) == 0 {
		return shape.Shape{}, shapeErrorf(b.Name(), "dims is empty")
	}
	if b.Axis < 0 || b.Axis+in.Rank() > len(b.Dims) {
		return shape.Shape{}, shapeErrorf(b.Name(), "input %v does not fit dims %v at axis %d", in.Lens(), b.Dims, b.Axis)
	}
	lens, strides := in.Lens(), in.Strides()
	outStrides := make([]int, len(b.Dims))
	for i, l := range lens {
		if b.Dims[b.Axis+i] != l {
			return shape.Shape{}, shapeErrorf(b.Name(), "input %v does not match dims %v at axis %d", lens, b.Dims, b.Axis)
		}
		outStrides[b.Axis+i] = strides[i]
	}
	return shape.WithStrides(in.Type(), b.Dims, outStrides), nil
}

func (Broadcast) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0].View(out), nil
}

// Multibroadcast aligns the trailing input dimensions to output_lens. Input
// dimensions of length 1 are replicated with a zero stride.
type Multibroadcast struct {
	OutLens []int `cty:"output_lens"`
}

func (Multibroadcast) Name() string { return "multibroadcast" }

func (m Multibroadcast) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(m.Name(), inputs).has(1).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	in := inputs[0]
	if len(m.OutLens) == 0 || in.Rank() > len(m.OutLens) {
		return shape.Shape{}, shapeErrorf(m.Name(), "cannot broadcast %v to %v", in.Lens(), m.OutLens)
	}
	lens, strides := in.Lens(), in.Strides()
	offset := len(m.OutLens) - len(lens)
	outStrides := make([]int, len(m.OutLens))
	for i, l := range lens {
		switch want := m.OutLens[offset+i]; {
		case l == want:
			outStrides[offset+i] = strides[i]
		case l == 1:
			outStrides[offset+i] = 0
		default:
			return shape.Shape{}, shapeErrorf(m.Name(), "cannot broadcast %v to %v", lens, m.OutLens)
		}
	}
	return shape.WithStrides(in.Type(), m.OutLens, outStrides), nil
}

func (Multibroadcast) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0].View(out), nil
}

// Contiguous materializes its input in standard layout.
type Contiguous struct{}

func (Contiguous) Name() string { return "contiguous" }

func (c Contiguous) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(c.Name(), inputs).has(1).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	return inputs[0].AsStandard(), nil
}

func (Contiguous) Compute(_ shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0].Contiguous(), nil
}

// Transpose permutes dimensions without moving data.
type Transpose struct {
	Permutation []int `cty:"permutation"`
}

func (Transpose) Name() string { return "transpose" }

func (t Transpose) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(t.Name(), inputs).has(1).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	in := inputs[0]
	if len(t.Permutation) != in.Rank() {
		return shape.Shape{}, shapeErrorf(t.Name(), "permutation %v does not match rank %d", t.Permutation, in.Rank())
	}
	sorted := slices.Sorted(slices.Values(t.Permutation))
	for i, p := range sorted {
		if p != i {
			return shape.Shape{}, shapeErrorf(t.Name(), "%v is not a permutation", t.Permutation)
		}
	}
	lens, strides := in.Lens(), in.Strides()
	outLens := make([]int, len(lens))
	outStrides := make([]int, len(lens))
	for i, p := range t.Permutation {
		outLens[i] = lens[p]
		outStrides[i] = strides[p]
	}
	return shape.WithStrides(in.Type(), outLens, outStrides), nil
}

func (Transpose) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0].View(out), nil
}

// Reshape reinterprets a standard input with new dims. A 0 keeps the input
// dimension at that position and a single -1 is inferred.
type Reshape struct {
	Dims []int `cty:"dims"`
}

func (Reshape) Name() string { return "reshape" }

func (r Reshape) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(r.Name(), inputs).has(1).notTuple().standard().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	in := inputs[0]
	lens := in.Lens()
	dims := slices.Clone(r.Dims)
	infer := -1
	known := 1
	for i, d := range dims {
		switch {
		case d == 0:
			if i >= len(lens) {
				return shape.Shape{}, shapeErrorf(r.Name(), "dim 0 at %d has no input dimension", i)
			}
			dims[i] = lens[i]
		case d == -1:
			if infer >= 0 {
				return shape.Shape{}, shapeErrorf(r.Name(), "more than one inferred dimension in %v", r.Dims)
			}
			infer = i
			continue
		case d < -1:
			return shape.Shape{}, shapeErrorf(r.Name(), "invalid dimension %d", d)
		}
		known *= dims[i]
	}
	if infer >= 0 {
		if known == 0 || in.Elements()%known != 0 {
			return shape.Shape{}, shapeErrorf(r.Name(), "cannot infer dimension of %v from %v", r.Dims, lens)
		}
		dims[infer] = in.Elements() / known
	}
	out := shape.New(in.Type(), dims...)
	if out.Elements() != in.Elements() {
		return shape.Shape{}, shapeErrorf(r.Name(), "cannot reshape %v to %v", lens, dims)
	}
	return out, nil
}

func (Reshape) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0].Contiguous().View(out), nil
}

// Identity forwards its first input unchanged. Extra inputs only order it
// after other instructions.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (i Identity) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if len(inputs) == 0 {
		return shape.Shape{}, shapeErrorf(i.Name(), "expected at least 1 input")
	}
	if err := check(i.Name(), inputs).noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	return inputs[0], nil
}

func (Identity) Compute(_ shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0], nil
}
