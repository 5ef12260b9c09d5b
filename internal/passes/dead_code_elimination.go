package passes

import (
	"context"

	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
)

// DeadCodeElimination removes instructions nothing reads. Parameters and
// the module terminal are kept.
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string { return "dead_code_elimination" }

func (DeadCodeElimination) Apply(ctx context.Context, m *ir.Module) error {
	removed := 0
	for r := range m.Backward() {
		if len(r.Outputs()) > 0 || r == m.Terminal() {
			continue
		}
		if _, isParam := r.Op().(op.Param); isParam {
			continue
		}
		m.RemoveInstruction(r)
		removed++
	}

	ctxlog.FromContext(ctx).Debug("Removed dead instructions.", "module", m.Name(), "removed", removed)
	return nil
}
