// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/ctxlog"
)

// translatePipeline converts a pipeline block into the agnostic model.
func translatePipeline(ctx context.Context, p *pipelineBlock) (*config.Pipeline, error) {
	ctxlog.FromContext(ctx).Debug("Translating HCL pipeline.", "pipeline", p.Name, "pass_count", len(p.Passes))

	out := &config.Pipeline{Name: p.Name}
	for _, pb := range p.Passes {
		attrs, err := bodyAttributes(pb.Body)
		if err != nil {
			return nil, fmt.Errorf("pipeline '%s', pass '%s': %w", p.Name, pb.Name, err)
		}
		out.Passes = append(out.Passes, &config.Pass{Name: pb.Name, Attributes: attrs})
	}
	return out, nil
}

// translateModule converts a module block into the agnostic model.
func translateModule(ctx context.Context, m *moduleBlock) (*config.Module, error) {
	logger := ctxlog.FromContext(ctx).With("module", m.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL module.",
		"parameters", len(m.Parameters),
		"literals", len(m.Literals),
		"instructions", len(m.Instructions),
	)

	out := &config.Module{Name: m.Name, Outputs: m.Outputs}
	for _, p := range m.Parameters {
		out.Parameters = append(out.Parameters, &config.Parameter{
			Name:    p.Name,
			Type:    p.Type,
			Lens:    p.Lens,
			Strides: p.Strides,
		})
	}
	for _, l := range m.Literals {
		out.Literals = append(out.Literals, &config.Literal{
			Name: l.Name,
			Type: l.Type,
			Lens: l.Lens,
			Data: l.Data,
		})
	}
	for _, ins := range m.Instructions {
		attrs, err := evalAttributes(ctx, ins.Attributes)
		if err != nil {
			return nil, fmt.Errorf("module '%s', instruction '%s': %w", m.Name, ins.Name, err)
		}
		out.Instructions = append(out.Instructions, &config.Instruction{
			Name:       ins.Name,
			Op:         ins.Op,
			Inputs:     ins.Inputs,
			Modules:    ins.Modules,
			Attributes: attrs,
		})
	}
	return out, nil
}
