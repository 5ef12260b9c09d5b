// This file holds the gohcl decoding targets for pipeline and graph files.

package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is a struct used to decode all possible top-level blocks from any
// file. Other blocks are rejected.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Modules   []*moduleBlock   `hcl:"module,block"`
}

type pipelineBlock struct {
	Name   string       `hcl:"name,label"`
	Passes []*passBlock `hcl:"pass,block"`
}

// passBlock keeps its body undecoded: its attributes depend on the pass.
type passBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type moduleBlock struct {
	Name         string              `hcl:"name,label"`
	Parameters   []*parameterBlock   `hcl:"parameter,block"`
	Literals     []*literalBlock     `hcl:"literal,block"`
	Instructions []*instructionBlock `hcl:"instruction,block"`
	Outputs      []string            `hcl:"outputs,optional"`
}

type parameterBlock struct {
	Name    string `hcl:"name,label"`
	Type    string `hcl:"type"`
	Lens    []int  `hcl:"lens,optional"`
	Strides []int  `hcl:"strides,optional"`
}

type literalBlock struct {
	Name string    `hcl:"name,label"`
	Type string    `hcl:"type"`
	Lens []int     `hcl:"lens,optional"`
	Data []float64 `hcl:"data"`
}

type instructionBlock struct {
	Name       string         `hcl:"name,label"`
	Op         string         `hcl:"op"`
	Inputs     []string       `hcl:"inputs,optional"`
	Modules    []string       `hcl:"modules,optional"`
	Attributes hcl.Expression `hcl:"attributes,optional"`
}
