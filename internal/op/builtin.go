package op

import (
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// Literal is a constant tensor. Data holds the elements in row-major order;
// empty Lens describe a one-element literal.
type Literal struct {
	Type shape.Type `cty:"type"`
	Lens []int      `cty:"lens"`
	Data []float64  `cty:"data"`
}

// NewLiteral captures a tensor as a literal operation.
func NewLiteral(t tensor.Tensor) Literal {
	s := t.Shape()
	return Literal{Type: s.Type(), Lens: s.Lens(), Data: t.Values()}
}

func (Literal) Name() string { return "@literal" }

// Shape returns the standard shape of the literal.
func (l Literal) Shape() shape.Shape { return shape.New(l.Type, l.Lens...) }

func (l Literal) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(l.Name(), inputs).has(0).noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	if !l.Type.Valid() || l.Type == shape.Tuple {
		return shape.Shape{}, shapeErrorf(l.Name(), "invalid type %q", l.Type)
	}
	for _, d := range l.Lens {
		if d < 0 {
			return shape.Shape{}, shapeErrorf(l.Name(), "negative dimension in %v", l.Lens)
		}
	}
	s := l.Shape()
	if len(l.Data) != s.Elements() {
		return shape.Shape{}, shapeErrorf(l.Name(), "%d values for %d elements", len(l.Data), s.Elements())
	}
	return s, nil
}

func (l Literal) Compute(out shape.Shape, _ []tensor.Tensor) (tensor.Tensor, error) {
	return tensor.FromValues(out, l.Data)
}

// Param is a named module input. Strides may be omitted for a standard
// layout.
type Param struct {
	Parameter string     `cty:"name"`
	Type      shape.Type `cty:"type"`
	Lens      []int      `cty:"lens"`
	Strides   []int      `cty:"strides"`
}

// NewParam creates the parameter operation for name with shape s.
func NewParam(name string, s shape.Shape) Param {
	return Param{Parameter: name, Type: s.Type(), Lens: s.Lens(), Strides: s.Strides()}
}

func (Param) Name() string { return "@param" }

// Shape returns the declared parameter shape.
func (p Param) Shape() shape.Shape {
	if p.Strides == nil {
		return shape.New(p.Type, p.Lens...)
	}
	return shape.WithStrides(p.Type, p.Lens, p.Strides)
}

func (p Param) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(p.Name(), inputs).has(0).noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	if p.Parameter == "" {
		return shape.Shape{}, shapeErrorf(p.Name(), "parameter has no name")
	}
	if !p.Type.Valid() || p.Type == shape.Tuple {
		return shape.Shape{}, shapeErrorf(p.Name(), "parameter %q has invalid type %q", p.Parameter, p.Type)
	}
	if p.Strides != nil && len(p.Strides) != len(p.Lens) {
		return shape.Shape{}, shapeErrorf(p.Name(), "parameter %q has %d lens but %d strides", p.Parameter, len(p.Lens), len(p.Strides))
	}
	for _, d := range p.Lens {
		if d < 0 {
			return shape.Shape{}, shapeErrorf(p.Name(), "parameter %q has negative dimension in %v", p.Parameter, p.Lens)
		}
	}
	return p.Shape(), nil
}

// Return is the terminal of a module. Its shape is the tuple of its inputs.
type Return struct{}

func (Return) Name() string { return "@return" }

func (r Return) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(r.Name(), inputs).noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	return shape.NewTuple(inputs...), nil
}

// Allocate produces a zero-filled buffer of the given type and lens.
type Allocate struct {
	Type shape.Type `cty:"type"`
	Lens []int      `cty:"lens"`
}

func (Allocate) Name() string { return "allocate" }

func (a Allocate) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(a.Name(), inputs).has(0).noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	if !a.Type.Valid() || a.Type == shape.Tuple {
		return shape.Shape{}, shapeErrorf(a.Name(), "invalid type %q", a.Type)
	}
	for _, d := range a.Lens {
		if d < 0 {
			return shape.Shape{}, shapeErrorf(a.Name(), "negative dimension in %v", a.Lens)
		}
	}
	return shape.New(a.Type, a.Lens...), nil
}

func (Allocate) Compute(out shape.Shape, _ []tensor.Tensor) (tensor.Tensor, error) {
	return tensor.New(out), nil
}

// GetTupleElem selects one element of a tuple-shaped input.
type GetTupleElem struct {
	Index int `cty:"index"`
}

func (GetTupleElem) Name() string { return "get_tuple_elem" }

func (g GetTupleElem) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(g.Name(), inputs).has(1).noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	in := inputs[0]
	if !in.IsTuple() {
		return shape.Shape{}, shapeErrorf(g.Name(), "input is not a tuple: %s", in)
	}
	subs := in.SubShapes()
	if g.Index < 0 || g.Index >= len(subs) {
		return shape.Shape{}, shapeErrorf(g.Name(), "index %d out of range for %d elements", g.Index, len(subs))
	}
	return subs[g.Index], nil
}

func (g GetTupleElem) Compute(_ shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0].Element(g.Index), nil
}
