package builder

import (
	"context"
	"fmt"

	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
)

// Builder turns graph descriptions into programs using the operations of a
// registry.
type Builder struct {
	ops *op.Registry
}

// New creates a builder. A nil registry selects op.Default.
func New(ops *op.Registry) *Builder {
	if ops == nil {
		ops = op.Default()
	}
	return &Builder{ops: ops}
}

// Build constructs and validates the program described by g.
func (b *Builder) Build(ctx context.Context, g *config.Graph) (*ir.Program, error) {
	logger := ctxlog.FromContext(ctx).With("source", g.Source)
	logger.Debug("Build: Starting program construction.")

	st, err := newState(g, b.ops)
	if err != nil {
		return nil, err
	}

	// First pass: create modules with their parameters and literals.
	if err := st.declare(); err != nil {
		return nil, err
	}
	logger.Debug("Build: Declarations complete.", "module_count", len(g.Modules))

	// Second pass: link instruction dependencies across modules.
	order, err := st.link()
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: Linking complete.", "node_count", len(order))

	// Third pass: insert instructions in dependency order.
	for _, id := range order {
		if err := st.emit(id); err != nil {
			return nil, err
		}
	}

	if err := st.prog.Validate(); err != nil {
		return nil, fmt.Errorf("error validating program: %w", err)
	}
	logger.Debug("Build: Program construction successful.")
	return st.prog, nil
}
