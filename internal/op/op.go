package op

import (
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// Operation is a named computation with a shape inference rule. ComputeShape
// must be pure: the same input shapes, submodules and attributes always yield
// the same result.
type Operation interface {
	Name() string
	ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error)
}

// Subgraph is the view of a nested module that control-flow operations need
// for shape inference.
type Subgraph interface {
	Name() string
	ParameterShapes() []shape.Shape
	OutputShapes() []shape.Shape
}

// Computer is implemented by operations that can be evaluated on host
// tensors. out is the cached output shape of the instruction.
type Computer interface {
	Compute(out shape.Shape, args []tensor.Tensor) (tensor.Tensor, error)
}

// Runner evaluates a nested module with its parameters bound in declaration
// order and returns the module outputs.
type Runner func(mod Subgraph, params []tensor.Tensor) ([]tensor.Tensor, error)

// SubgraphComputer is implemented by control-flow operations, which evaluate
// nested modules through run.
type SubgraphComputer interface {
	ComputeSubgraphs(out shape.Shape, args []tensor.Tensor, mods []Subgraph, run Runner) (tensor.Tensor, error)
}
