package passes

import (
	"context"

	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/shape"
)

// EliminateContiguous removes instructions named OpName (contiguous by
// default) when every consumer can read the normalizer's input directly.
// A consumer accepts when its shape inference succeeds on the input layout;
// if that changes its own shape to another non-standard layout, its
// consumers must accept in turn. Module outputs only accept standard
// layouts.
type EliminateContiguous struct {
	OpName string `cty:"op_name"`
}

func (EliminateContiguous) Name() string { return "eliminate_contiguous" }

func (p EliminateContiguous) Apply(ctx context.Context, m *ir.Module) error {
	name := p.OpName
	if name == "" {
		name = "contiguous"
	}

	removed := 0
	for r := range m.Instructions() {
		if r.Op().Name() != name || len(r.Inputs()) != 1 {
			continue
		}
		prev := r.Inputs()[0]
		if !acceptsAll(r, prev.Shape()) {
			continue
		}
		if err := m.ReplaceAllUsesWith(r, prev); err != nil {
			return err
		}
		if !r.Valid() {
			removed++
		}
	}

	ctxlog.FromContext(ctx).Debug("Eliminated layout normalizers.", "module", m.Name(), "op", name, "removed", removed)
	return nil
}

// acceptsAll reports whether every consumer of r accepts s in place of r's
// shape.
func acceptsAll(r ir.Ref, s shape.Shape) bool {
	if isOutput(r) && !s.Standard() && !s.Equal(r.Shape()) {
		return false
	}
	for _, u := range r.Outputs() {
		if !accepts(u, r, s) {
			return false
		}
	}
	return true
}

// accepts reports whether u can read s where it reads old.
func accepts(u, old ir.Ref, s shape.Shape) bool {
	if u.Op().Name() == "@return" {
		return s.Standard()
	}
	inputs := u.InputShapes()
	for i, in := range u.Inputs() {
		if in == old {
			inputs[i] = s
		}
	}
	ns, err := u.InferShape(inputs)
	if err != nil {
		return false
	}
	if ns.Equal(u.Shape()) || ns.Standard() {
		return true
	}
	return acceptsAll(u, ns)
}

// isOutput reports whether r is the implicit terminal of its module, whose
// shape the control-flow instructions running the module depend on.
func isOutput(r ir.Ref) bool {
	return r.Module().Terminal() == r && r.Op().Name() != "@return"
}
