package passes

import (
	"context"
	"fmt"

	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// RewriteQuantization lowers quantizelinear and dequantizelinear into
// broadcast, arithmetic, rounding, clip and convert instructions. Both
// operations must carry an axis attribute.
//
//	quantize:   convert<T>(clip(int32(round(x / scale)) + int32(zero_point), min(T), max(T)))
//	dequantize: float(int32(x) - int32(zero_point)) * scale
//
// A one-element scale or zero point is broadcast to every element of x;
// a longer one runs along the axis.
type RewriteQuantization struct{}

func (RewriteQuantization) Name() string { return "rewrite_quantization" }

func (RewriteQuantization) Apply(ctx context.Context, m *ir.Module) error {
	lowered := 0
	for r := range m.Instructions() {
		var err error
		switch o := r.Op().(type) {
		case op.QuantizeLinear:
			err = lowerQuantize(m, r, o.Axis)
		case op.DequantizeLinear:
			err = lowerDequantize(m, r, o.Axis)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("lowering %v: %w", r, err)
		}
		lowered++
	}

	ctxlog.FromContext(ctx).Debug("Lowered quantization operators.", "module", m.Name(), "lowered", lowered)
	return nil
}

// lowering inserts instructions ahead of the instruction being replaced.
// The first failure is kept and later steps become no-ops.
type lowering struct {
	m    *ir.Module
	at   ir.Ref
	x    shape.Shape
	axis int
	err  error
}

func newLowering(m *ir.Module, r ir.Ref, axis *int) (*lowering, error) {
	if axis == nil {
		return nil, fmt.Errorf("%w: %s: axis is required", op.ErrMalformedAttribute, r.Op().Name())
	}
	return &lowering{m: m, at: r, x: r.Inputs()[0].Shape(), axis: *axis}, nil
}

func (l *lowering) add(o op.Operation, inputs ...ir.Ref) ir.Ref {
	if l.err != nil {
		return ir.Ref{}
	}
	r, err := l.m.InsertInstruction(l.at, o, inputs)
	l.err = err
	return r
}

func (l *lowering) convert(in ir.Ref, t shape.Type) ir.Ref {
	return l.add(op.Convert{TargetType: t}, in)
}

// broadcast expands a scale or zero point to the lens of x. The axis is
// tuned only for operands that run along it.
func (l *lowering) broadcast(in ir.Ref) ir.Ref {
	if l.err != nil {
		return ir.Ref{}
	}
	if in.Shape().Elements() == 1 {
		return l.add(op.Multibroadcast{OutLens: l.x.Lens()}, in)
	}
	axis, err := op.TuneAxis(l.x.Rank(), l.axis, l.at.Op().Name())
	if err != nil {
		l.err = err
		return ir.Ref{}
	}
	return l.add(op.Broadcast{Axis: axis, Dims: l.x.Lens()}, in)
}

// int32Of broadcasts in and converts it to int32.
func (l *lowering) int32Of(in ir.Ref) ir.Ref {
	return l.convert(l.broadcast(in), shape.Int32)
}

// literal adds a one-element constant of type t.
func (l *lowering) literal(t shape.Type, v float64) ir.Ref {
	return l.m.AddLiteral(tensor.Scalar(t, v))
}

// zeroPoint returns the zero point input, or a zero literal of type t.
func (l *lowering) zeroPoint(t shape.Type) ir.Ref {
	if in := l.at.Inputs(); len(in) == 3 {
		return in[2]
	}
	return l.literal(t, 0)
}

// replace swaps the lowered instruction for its final step.
func (l *lowering) replace(o op.Operation, inputs ...ir.Ref) error {
	if l.err != nil {
		return l.err
	}
	_, err := l.m.ReplaceInstruction(l.at, o, inputs)
	return err
}

func lowerQuantize(m *ir.Module, r ir.Ref, axis *int) error {
	l, err := newLowering(m, r, axis)
	if err != nil {
		return err
	}
	in := r.Inputs()
	x, scale := in[0], in[1]
	target := r.Shape().Type()

	div := l.add(op.MustMake("div", nil), x, l.broadcast(scale))
	rounded := l.convert(l.add(op.MustMake("round", nil), div), shape.Int32)
	biased := l.add(op.MustMake("add", nil), rounded, l.int32Of(l.zeroPoint(target)))
	lo := l.int32Of(l.literal(shape.Int32, target.Min()))
	hi := l.int32Of(l.literal(shape.Int32, target.Max()))
	clipped := l.add(op.Clip{}, biased, lo, hi)
	return l.replace(op.Convert{TargetType: target}, clipped)
}

func lowerDequantize(m *ir.Module, r ir.Ref, axis *int) error {
	l, err := newLowering(m, r, axis)
	if err != nil {
		return err
	}
	in := r.Inputs()
	x, scale := in[0], in[1]
	ft := scale.Shape().Type()

	shifted := l.add(op.MustMake("sub", nil), l.convert(x, shape.Int32), l.int32Of(l.zeroPoint(x.Shape().Type())))
	shiftedF := l.convert(shifted, ft)
	if ft == shape.Float {
		return l.replace(op.MustMake("mul", nil), shiftedF, l.broadcast(scale))
	}
	scaled := l.add(op.MustMake("mul", nil), shiftedF, l.broadcast(scale))
	return l.replace(op.Convert{TargetType: shape.Float}, scaled)
}
