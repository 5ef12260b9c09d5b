package op

import (
	"math"

	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// Unary is an elementwise operation of one input. A packed input layout is
// kept; any other layout produces a standard result.
type Unary struct {
	name string
	fn   func(float64) float64
}

func (u Unary) Name() string { return u.name }

func (u Unary) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(u.name, inputs).has(1).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	return elementwiseResult(inputs[0]), nil
}

func (u Unary) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return args[0].Map(out, u.fn), nil
}

func elementwiseResult(in shape.Shape) shape.Shape {
	if in.Packed() {
		return in
	}
	return in.AsStandard()
}

var unaryOps = []Unary{
	{name: "abs", fn: math.Abs},
	{name: "neg", fn: func(x float64) float64 { return -x }},
	{name: "exp", fn: math.Exp},
	{name: "log", fn: math.Log},
	{name: "sqrt", fn: math.Sqrt},
	{name: "rsqrt", fn: func(x float64) float64 { return 1 / math.Sqrt(x) }},
	{name: "sin", fn: math.Sin},
	{name: "cos", fn: math.Cos},
	{name: "tanh", fn: math.Tanh},
	{name: "sigmoid", fn: func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }},
	{name: "relu", fn: func(x float64) float64 { return math.Max(x, 0) }},
	{name: "round", fn: math.RoundToEven},
	{name: "floor", fn: math.Floor},
	{name: "ceil", fn: math.Ceil},
	{name: "recip", fn: func(x float64) float64 { return 1 / x }},
	{name: "sign", fn: func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	}},
	{name: "erf", fn: math.Erf},
	{name: "not", fn: func(x float64) float64 {
		if x == 0 {
			return 1
		}
		return 0
	}},
}

// Binary is an elementwise operation of two inputs with equal type and lens.
// Identical packed inputs keep their layout; otherwise the result is
// standard. Comparisons produce bool_type.
type Binary struct {
	name    string
	fn      func(a, b float64) float64
	compare bool
}

func (b Binary) Name() string { return b.name }

func (b Binary) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(b.name, inputs).has(2).notTuple().sameType().sameDims().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	out := inputs[0].AsStandard()
	if inputs[0].Equal(inputs[1]) && inputs[0].Packed() {
		out = inputs[0]
	}
	if b.compare {
		out = out.WithType(shape.Bool)
	}
	return out, nil
}

func (b Binary) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	return tensor.Zip(out, args[0], args[1], b.fn), nil
}

func boolean(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

var binaryOps = []Binary{
	{name: "add", fn: func(a, b float64) float64 { return a + b }},
	{name: "sub", fn: func(a, b float64) float64 { return a - b }},
	{name: "mul", fn: func(a, b float64) float64 { return a * b }},
	{name: "div", fn: func(a, b float64) float64 { return a / b }},
	{name: "pow", fn: math.Pow},
	{name: "max", fn: math.Max},
	{name: "min", fn: math.Min},
	{name: "equal", fn: func(a, b float64) float64 { return boolean(a == b) }, compare: true},
	{name: "greater", fn: func(a, b float64) float64 { return boolean(a > b) }, compare: true},
	{name: "less", fn: func(a, b float64) float64 { return boolean(a < b) }, compare: true},
}

// Clip bounds x elementwise to [min, max]; all three inputs share type and
// lens.
type Clip struct{}

func (Clip) Name() string { return "clip" }

func (c Clip) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(c.Name(), inputs).has(3).notTuple().sameType().sameDims().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	return elementwiseResult(inputs[0]), nil
}

func (Clip) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	x, lo, hi := args[0], args[1], args[2]
	return tensor.Generate(out, func(idx []int, _ int) float64 {
		return math.Min(math.Max(x.At(idx...), lo.At(idx...)), hi.At(idx...))
	}), nil
}

// Convert changes the element type. Values are rounded toward zero and
// saturated when the target is an integer type.
type Convert struct {
	TargetType shape.Type `cty:"target_type"`
}

func (Convert) Name() string { return "convert" }

func (c Convert) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(c.Name(), inputs).has(1).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	if !c.TargetType.Valid() || c.TargetType == shape.Tuple {
		return shape.Shape{}, shapeErrorf(c.Name(), "invalid target type %q", c.TargetType)
	}
	return elementwiseResult(inputs[0]).WithType(c.TargetType), nil
}

func (Convert) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	x := args[0]
	return tensor.Generate(out, func(idx []int, _ int) float64 { return x.At(idx...) }), nil
}
