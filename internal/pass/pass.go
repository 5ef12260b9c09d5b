// Package pass defines compiler passes and applies them to modules.
//
// A pass rewrites one module in place. Run applies it to the given module
// and to every module nested in it through control-flow instructions, each
// exactly once, enclosing modules first. After every pass all visited
// modules are validated, so a pass that breaks ordering, reference
// integrity or shape consistency is reported by name.
package pass

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
)

// Pass is a named in-place module rewrite.
type Pass interface {
	Name() string
	Apply(ctx context.Context, m *ir.Module) error
}

type funcPass struct {
	name string
	fn   func(context.Context, *ir.Module) error
}

func (f funcPass) Name() string { return f.name }

func (f funcPass) Apply(ctx context.Context, m *ir.Module) error { return f.fn(ctx, m) }

// Func adapts a function to Pass.
func Func(name string, fn func(ctx context.Context, m *ir.Module) error) Pass {
	return funcPass{name: name, fn: fn}
}

// Run applies each pass, in order, to m and its nested modules. The first
// failing pass or validation aborts the run.
func Run(ctx context.Context, m *ir.Module, passes ...Pass) error {
	logger := ctxlog.FromContext(ctx)
	for _, p := range passes {
		mods, err := scope(m)
		if err != nil {
			return fmt.Errorf("pass '%s': %w", p.Name(), err)
		}

		start := time.Now()
		for _, mod := range mods {
			logger.Debug("Applying pass.", "pass", p.Name(), "module", mod.Name())
			if err := p.Apply(ctx, mod); err != nil {
				return fmt.Errorf("pass '%s' on module '%s': %w", p.Name(), mod.Name(), err)
			}
		}
		for _, mod := range mods {
			if err := mod.Validate(); err != nil {
				return fmt.Errorf("pass '%s': %w", p.Name(), err)
			}
		}
		logger.Debug("Pass finished.", "pass", p.Name(), "modules", len(mods), "duration", time.Since(start))
	}
	return nil
}

// RunProgram applies the passes starting from the main module.
func RunProgram(ctx context.Context, prog *ir.Program, passes ...Pass) error {
	return Run(ctx, prog.Main(), passes...)
}

// scope returns m followed by every module nested in it, enclosing modules
// first.
func scope(m *ir.Module) ([]*ir.Module, error) {
	prog := m.Program()
	if prog == nil {
		return []*ir.Module{m}, nil
	}
	g, err := prog.Graph()
	if err != nil {
		return nil, err
	}
	names, err := g.Reachable(m.Name())
	if err != nil {
		return nil, err
	}
	mods := make([]*ir.Module, 0, len(names))
	for _, name := range names {
		mod, _ := prog.Module(name)
		mods = append(mods, mod)
	}
	return mods, nil
}
