package pass

import (
	"context"

	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
)

// Pipeline is a named, ordered list of passes.
type Pipeline struct {
	Name   string
	Passes []Pass
}

// Names returns the pass names in order.
func (p Pipeline) Names() []string {
	out := make([]string, len(p.Passes))
	for i, ps := range p.Passes {
		out[i] = ps.Name()
	}
	return out
}

// Run applies the pipeline to prog.
func (p Pipeline) Run(ctx context.Context, prog *ir.Program) error {
	ctx = ctxlog.With(ctx, "pipeline", p.Name)
	return RunProgram(ctx, prog, p.Passes...)
}
