package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything the
// loader found: named pass pipelines and graph descriptions.
type Model struct {
	Pipelines map[string]*Pipeline
	Graphs    []*Graph
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Pipelines: make(map[string]*Pipeline)}
}

// Pipeline is an ordered list of pass invocations.
type Pipeline struct {
	Name   string
	Passes []*Pass
}

// Pass configures one pass invocation. Attributes override the defaults of
// the registered pass.
type Pass struct {
	Name       string
	Attributes map[string]cty.Value
}

// Graph describes one program. Source names the file it came from.
type Graph struct {
	Source  string
	Modules []*Module
}

// Module lists the declarations of one module. Parameters come first, in
// declaration order; literals and instructions follow.
type Module struct {
	Name         string
	Parameters   []*Parameter
	Literals     []*Literal
	Instructions []*Instruction
	// Outputs are input addresses for @return. Empty means the last
	// instruction is the result.
	Outputs []string
}

// Parameter declares a named module input. Strides are optional.
type Parameter struct {
	Name    string
	Type    string
	Lens    []int
	Strides []int
}

// Literal declares a constant with row-major data.
type Literal struct {
	Name string
	Type string
	Lens []int
	Data []float64
}

// Instruction declares one operation. Inputs are instruction addresses in
// the form understood by the nodeid package; Modules name the submodules of
// a control-flow operation.
type Instruction struct {
	Name       string
	Op         string
	Inputs     []string
	Modules    []string
	Attributes cty.Value
}

// Module finds a module declaration by name.
func (g *Graph) Module(name string) (*Module, bool) {
	for _, m := range g.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}
