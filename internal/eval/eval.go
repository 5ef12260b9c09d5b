// Package eval runs modules on host memory with each operation's Compute
// method. It is the reference the passes are checked against: a rewrite is
// sound when evaluation before and after agrees.
package eval

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/tensor"
)

// ErrNotComputable marks an instruction whose operation has no host
// implementation.
var ErrNotComputable = errors.New("operation cannot be evaluated")

// evaluator keeps every computed value keyed by instruction, across module
// scopes, so nested modules can read values of their enclosing modules.
type evaluator struct {
	ctx     context.Context
	results map[ir.Ref]tensor.Tensor
}

// Run evaluates m with parameters bound by name and returns the module
// outputs.
func Run(ctx context.Context, m *ir.Module, params map[string]tensor.Tensor) ([]tensor.Tensor, error) {
	e := &evaluator{ctx: ctx, results: make(map[ir.Ref]tensor.Tensor)}
	return e.module(m, func(i int, p ir.Ref) (tensor.Tensor, error) {
		name := m.ParameterNames()[i]
		t, ok := params[name]
		if !ok {
			return tensor.Tensor{}, fmt.Errorf("module '%s': no value for parameter '%s'", m.Name(), name)
		}
		return t, nil
	})
}

// RunProgram evaluates the main module of p.
func RunProgram(ctx context.Context, p *ir.Program, params map[string]tensor.Tensor) ([]tensor.Tensor, error) {
	return Run(ctx, p.Main(), params)
}

func (e *evaluator) module(m *ir.Module, bind func(int, ir.Ref) (tensor.Tensor, error)) ([]tensor.Tensor, error) {
	ctxlog.FromContext(e.ctx).Debug("Evaluating module.", "module", m.Name(), "instructions", m.Len())

	params := make(map[ir.Ref]int)
	for i, p := range m.Parameters() {
		params[p] = i
	}

	for r := range m.Instructions() {
		var (
			val tensor.Tensor
			err error
		)
		if i, ok := params[r]; ok {
			val, err = bind(i, r)
			if err == nil {
				val, err = conform(r, val)
			}
		} else {
			val, err = e.instruction(r)
		}
		if err != nil {
			return nil, err
		}
		e.results[r] = val
	}

	outs := m.Outputs()
	res := make([]tensor.Tensor, len(outs))
	for i, o := range outs {
		res[i] = e.results[o]
	}
	return res, nil
}

func (e *evaluator) instruction(r ir.Ref) (tensor.Tensor, error) {
	inputs := r.Inputs()
	args := make([]tensor.Tensor, len(inputs))
	for i, in := range inputs {
		v, ok := e.results[in]
		if !ok {
			return tensor.Tensor{}, fmt.Errorf("instruction %v: input %v has not been evaluated", r, in)
		}
		args[i] = v
	}

	switch o := r.Op().(type) {
	case op.Return:
		return tensor.Tuple(args...), nil
	case op.SubgraphComputer:
		mods := r.Modules()
		subs := make([]op.Subgraph, len(mods))
		for i, m := range mods {
			subs[i] = m
		}
		v, err := o.ComputeSubgraphs(r.Shape(), args, subs, e.run)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("instruction %v: %w", r, err)
		}
		return v, nil
	case op.Computer:
		v, err := o.Compute(r.Shape(), args)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("instruction %v: %w", r, err)
		}
		return v, nil
	}
	return tensor.Tensor{}, fmt.Errorf("instruction %v: %w: %s", r, ErrNotComputable, r.Op().Name())
}

// run is the op.Runner handed to control-flow operations. Positional
// parameter values are bound in declaration order.
func (e *evaluator) run(sub op.Subgraph, params []tensor.Tensor) ([]tensor.Tensor, error) {
	m, ok := sub.(*ir.Module)
	if !ok {
		return nil, fmt.Errorf("cannot evaluate subgraph %q of type %T", sub.Name(), sub)
	}
	if len(params) != len(m.Parameters()) {
		return nil, fmt.Errorf("module '%s': %d parameter values for %d parameters", m.Name(), len(params), len(m.Parameters()))
	}
	return e.module(m, func(i int, _ ir.Ref) (tensor.Tensor, error) { return params[i], nil })
}

// conform copies a bound parameter value into the declared parameter
// layout.
func conform(p ir.Ref, t tensor.Tensor) (tensor.Tensor, error) {
	want := p.Shape()
	got := t.Shape()
	if got.Equal(want) {
		return t, nil
	}
	if !got.SameLayout(want) {
		return tensor.Tensor{}, fmt.Errorf("parameter '%s': value has shape %s, want %s", p.Name(), got, want)
	}
	return tensor.Generate(want, func(idx []int, _ int) float64 { return t.At(idx...) }), nil
}
