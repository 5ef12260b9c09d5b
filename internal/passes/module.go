package passes

import (
	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/registry"
)

// Module registers the builtin passes with their default attributes.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.Register(EliminateContiguous{OpName: "contiguous"})
	r.Register(NormalizeBranchOutputs{})
	r.Register(RewriteQuantization{})
	r.Register(DeadCodeElimination{})
}

// DefaultPipelineName names the pipeline used when a run selects none.
const DefaultPipelineName = "default"

// DefaultPipeline lowers quantization, removes redundant layout copies,
// normalizes branch outputs and finally drops dead instructions.
func DefaultPipeline() *config.Pipeline {
	return &config.Pipeline{
		Name: DefaultPipelineName,
		Passes: []*config.Pass{
			{Name: RewriteQuantization{}.Name()},
			{Name: EliminateContiguous{}.Name()},
			{Name: NormalizeBranchOutputs{}.Name()},
			{Name: DeadCodeElimination{}.Name()},
		},
	}
}
