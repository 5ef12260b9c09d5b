package op

import (
	"math"

	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// QuantizeLinear maps x to an integer type: y = clip(round(x/scale) + zero_point).
// Inputs are x, scale and an optional zero_point whose type selects the
// result type (uint8_type when absent). A one-element scale or zero_point
// applies to every element; a longer one runs along Axis.
type QuantizeLinear struct {
	Axis *int `cty:"axis"`
}

func (QuantizeLinear) Name() string { return "quantizelinear" }

func (q QuantizeLinear) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(q.Name(), inputs).has(2, 3).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	x, scale := inputs[0], inputs[1]
	if scale.Type() != x.Type() {
		return shape.Shape{}, shapeErrorf(q.Name(), "scale type %s does not match input type %s", scale.Type(), x.Type())
	}
	if err := checkQuantOperands(q.Name(), q.Axis, x, inputs[1:]); err != nil {
		return shape.Shape{}, err
	}
	out := shape.Uint8
	if len(inputs) == 3 {
		out = inputs[2].Type()
		if !out.IsInteger() || out == shape.Bool {
			return shape.Shape{}, shapeErrorf(q.Name(), "zero point type %s is not an integer type", out)
		}
	}
	return shape.New(out, x.Lens()...), nil
}

func (q QuantizeLinear) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	axis, err := quantAxis(q.Name(), q.Axis, args[0].Shape(), args[1:])
	if err != nil {
		return tensor.Tensor{}, err
	}
	x := args[0]
	scale := operand(args[1], axis)
	zero := func([]int) float64 { return 0 }
	if len(args) == 3 {
		zero = operand(args[2], axis)
	}
	t := out.Type()
	return tensor.Generate(out, func(idx []int, _ int) float64 {
		v := math.RoundToEven(x.At(idx...)/scale(idx)) + zero(idx)
		return math.Min(math.Max(v, t.Min()), t.Max())
	}), nil
}

// DequantizeLinear maps an integer x back to float_type:
// y = (x - zero_point) * scale.
type DequantizeLinear struct {
	Axis *int `cty:"axis"`
}

func (DequantizeLinear) Name() string { return "dequantizelinear" }

func (d DequantizeLinear) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(d.Name(), inputs).has(2, 3).notTuple().noModules(mods).Err(); err != nil {
		return shape.Shape{}, err
	}
	x, scale := inputs[0], inputs[1]
	if !scale.Type().IsFloat() {
		return shape.Shape{}, shapeErrorf(d.Name(), "scale type %s is not a floating point type", scale.Type())
	}
	if len(inputs) == 3 && inputs[2].Type() != x.Type() {
		return shape.Shape{}, shapeErrorf(d.Name(), "zero point type %s does not match input type %s", inputs[2].Type(), x.Type())
	}
	if err := checkQuantOperands(d.Name(), d.Axis, x, inputs[1:]); err != nil {
		return shape.Shape{}, err
	}
	return shape.New(shape.Float, x.Lens()...), nil
}

func (d DequantizeLinear) Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error) {
	axis, err := quantAxis(d.Name(), d.Axis, args[0].Shape(), args[1:])
	if err != nil {
		return tensor.Tensor{}, err
	}
	x := args[0]
	scale := operand(args[1], axis)
	zero := func([]int) float64 { return 0 }
	if len(args) == 3 {
		zero = operand(args[2], axis)
	}
	return tensor.Generate(out, func(idx []int, _ int) float64 {
		return (x.At(idx...) - zero(idx)) * scale(idx)
	}), nil
}

// checkQuantOperands validates scale and zero point against x. Per-axis
// operands are only checked when the axis is known.
func checkQuantOperands(name string, axis *int, x shape.Shape, operands []shape.Shape) error {
	for _, o := range operands {
		if o.Elements() == 1 {
			continue
		}
		if o.Rank() != 1 {
			return shapeErrorf(name, "per-axis operand must be 1-D, got %v", o.Lens())
		}
		if axis == nil {
			continue
		}
		a, err := TuneAxis(x.Rank(), *axis, name)
		if err != nil {
			return err
		}
		if o.Lens()[0] != x.Lens()[a] {
			return shapeErrorf(name, "operand length %d does not match dimension %d of %v", o.Lens()[0], a, x.Lens())
		}
	}
	return nil
}

// quantAxis resolves the axis for evaluation. A missing axis is accepted
// only when every operand has one element.
func quantAxis(name string, axis *int, x shape.Shape, operands []tensor.Tensor) (int, error) {
	perAxis := false
	for _, o := range operands {
		if o.Shape().Elements() != 1 {
			perAxis = true
		}
	}
	if axis == nil {
		if perAxis {
			return 0, attributeErrorf(name, "axis is required")
		}
		return 0, nil
	}
	if !perAxis {
		return 0, nil
	}
	return TuneAxis(x.Rank(), *axis, name)
}

// operand returns a reader for a scale or zero point tensor at an element of x.
func operand(t tensor.Tensor, axis int) func([]int) float64 {
	vals := t.Values()
	if len(vals) == 1 {
		return func([]int) float64 { return vals[0] }
	}
	return func(idx []int) float64 { return vals[idx[axis]] }
}
