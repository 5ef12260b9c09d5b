package op

import (
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// If selects one of two modules with a scalar condition. Both branches must
// return outputs of equal type and lens. Where their strides differ, the
// result takes the layout of the first non-standard branch output, so
// consumers see the layout that at least one branch produces. Several
// outputs form a tuple.
type If struct{}

func (If) Name() string { return "if" }

func (o If) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if err := check(o.Name(), inputs).has(1).notTuple().Err(); err != nil {
		return shape.Shape{}, err
	}
	if cond := inputs[0]; cond.Type() != shape.Bool || !cond.Scalar() {
		return shape.Shape{}, shapeErrorf(o.Name(), "condition must be a bool scalar, got %s", cond)
	}
	if len(mods) != 2 {
		return shape.Shape{}, shapeErrorf(o.Name(), "expected 2 branch modules, got %d", len(mods))
	}
	then, els := mods[0].OutputShapes(), mods[1].OutputShapes()
	if len(then) == 0 || len(then) != len(els) {
		return shape.Shape{}, shapeErrorf(o.Name(), "branches %q and %q return %d and %d outputs", mods[0].Name(), mods[1].Name(), len(then), len(els))
	}

	outs := make([]shape.Shape, len(then))
	for i := range then {
		a, b := then[i], els[i]
		if !a.SameLayout(b) {
			return shape.Shape{}, shapeErrorf(o.Name(), "output %d differs between branches: %s vs %s", i, a, b)
		}
		switch {
		case a.Equal(b), !a.Standard():
			outs[i] = a
		default:
			outs[i] = b
		}
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return shape.NewTuple(outs...), nil
}

func (o If) ComputeSubgraphs(out shape.Shape, args []tensor.Tensor, mods []Subgraph, run Runner) (tensor.Tensor, error) {
	mod := mods[1]
	if args[0].Values()[0] != 0 {
		mod = mods[0]
	}
	res, err := run(mod, nil)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if !out.IsTuple() {
		return relayout(res[0], out), nil
	}
	subs := out.SubShapes()
	elems := make([]tensor.Tensor, len(res))
	for i, r := range res {
		elems[i] = relayout(r, subs[i])
	}
	return tensor.Tuple(elems...), nil
}

// relayout copies t into layout s when the two differ.
func relayout(t tensor.Tensor, s shape.Shape) tensor.Tensor {
	if t.Shape().Equal(s) {
		return t
	}
	return tensor.Generate(s, func(idx []int, _ int) float64 { return t.At(idx...) })
}

// Loop runs its body module up to MaxIterations times. Inputs are the trip
// count, the initial condition and the carried values. The body declares its
// parameters in the order iteration number, condition, carried values, and
// returns the next condition, the next carried values and any scan outputs.
//
// The result is a tuple of the final carried values followed by each scan
// output stacked along a new leading dimension of MaxIterations; slots past
// the last executed iteration stay zero.
type Loop struct {
	MaxIterations int `cty:"max_iterations"`
}

func (Loop) Name() string { return "loop" }

func (l Loop) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	if len(inputs) < 2 {
		return shape.Shape{}, shapeErrorf(l.Name(), "expected trip count and condition inputs, got %d inputs", len(inputs))
	}
	if err := check(l.Name(), inputs).notTuple().Err(); err != nil {
		return shape.Shape{}, err
	}
	if l.MaxIterations <= 0 {
		return shape.Shape{}, shapeErrorf(l.Name(), "max_iterations must be positive, got %d", l.MaxIterations)
	}
	if !inputs[0].Scalar() || !inputs[1].Scalar() {
		return shape.Shape{}, shapeErrorf(l.Name(), "trip count and condition must be scalars")
	}
	if len(mods) != 1 {
		return shape.Shape{}, shapeErrorf(l.Name(), "expected 1 body module, got %d", len(mods))
	}

	body := mods[0]
	carried := inputs[2:]
	if n := len(body.ParameterShapes()); n != 2+len(carried) {
		return shape.Shape{}, shapeErrorf(l.Name(), "body %q declares %d parameters, want %d", body.Name(), n, 2+len(carried))
	}
	outs := body.OutputShapes()
	if len(outs) < 1+len(carried) {
		return shape.Shape{}, shapeErrorf(l.Name(), "body %q returns %d outputs, want at least %d", body.Name(), len(outs), 1+len(carried))
	}
	if !outs[0].Scalar() {
		return shape.Shape{}, shapeErrorf(l.Name(), "body %q condition output is not a scalar: %s", body.Name(), outs[0])
	}

	result := make([]shape.Shape, 0, len(outs)-1)
	for i, c := range carried {
		if !outs[1+i].SameLayout(c) {
			return shape.Shape{}, shapeErrorf(l.Name(), "carried value %d changes from %s to %s", i, c, outs[1+i])
		}
		result = append(result, c.AsStandard())
	}
	for _, s := range outs[1+len(carried):] {
		if s.IsTuple() {
			return shape.Shape{}, shapeErrorf(l.Name(), "scan output cannot be a tuple")
		}
		result = append(result, shape.New(s.Type(), append([]int{l.MaxIterations}, s.Lens()...)...))
	}
	return shape.NewTuple(result...), nil
}

func (l Loop) ComputeSubgraphs(out shape.Shape, args []tensor.Tensor, mods []Subgraph, run Runner) (tensor.Tensor, error) {
	body := mods[0]
	params := body.ParameterShapes()
	subs := out.SubShapes()
	nc := len(args) - 2

	trip := int(args[0].Values()[0])
	if trip < 0 || trip > l.MaxIterations {
		trip = l.MaxIterations
	}
	cond := args[1].Values()[0] != 0
	carried := args[2:]
	scans := make([][]tensor.Tensor, len(subs)-nc)

	for i := 0; i < trip && cond; i++ {
		in := make([]tensor.Tensor, 0, len(params))
		in = append(in,
			tensor.Generate(params[0], func([]int, int) float64 { return float64(i) }),
			tensor.Generate(params[1], func([]int, int) float64 { return boolean(cond) }),
		)
		in = append(in, carried...)

		res, err := run(body, in)
		if err != nil {
			return tensor.Tensor{}, err
		}
		cond = res[0].Values()[0] != 0
		carried = res[1 : 1+nc]
		for j := range scans {
			scans[j] = append(scans[j], res[1+nc+j])
		}
	}

	elems := make([]tensor.Tensor, 0, len(subs))
	for i, c := range carried {
		elems = append(elems, relayout(c, subs[i]))
	}
	for j, iters := range scans {
		elems = append(elems, tensor.Generate(subs[nc+j], func(idx []int, _ int) float64 {
			if idx[0] >= len(iters) {
				return 0
			}
			return iters[idx[0]].At(idx[1:]...)
		}))
	}
	return tensor.Tuple(elems...), nil
}
