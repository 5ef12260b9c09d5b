package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/dag"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/nodeid"
	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// retName is the pseudo instruction standing for the outputs of a module in
// the dependency graph. Declared names cannot start with '@'.
const retName = "@return"

type declKind int

const (
	parameterDecl declKind = iota
	literalDecl
	instructionDecl
)

// node is a vertex of the dependency graph: an instruction, or the @return
// of a module when ins is nil.
type node struct {
	module string
	ins    *config.Instruction
}

// state holds everything needed while one graph is being built.
type state struct {
	graph *config.Graph
	ops   *op.Registry
	prog  *ir.Program

	modules map[string]*config.Module
	// nesting has an edge from each module to the modules it runs.
	nesting *dag.Graph
	decls   map[string]map[string]declKind
	nodes   map[string]node
	// elems caches get_tuple_elem instructions by reading module and address.
	elems map[string]ir.Ref
}

func newState(g *config.Graph, ops *op.Registry) (*state, error) {
	st := &state{
		graph:   g,
		ops:     ops,
		prog:    ir.NewProgram(),
		modules: make(map[string]*config.Module),
		nesting: dag.New(),
		decls:   make(map[string]map[string]declKind),
		nodes:   make(map[string]node),
		elems:   make(map[string]ir.Ref),
	}

	for _, m := range g.Modules {
		if err := checkName(m.Name); err != nil {
			return nil, fmt.Errorf("module: %w", err)
		}
		if _, dup := st.modules[m.Name]; dup {
			return nil, fmt.Errorf("duplicate module '%s'", m.Name)
		}
		st.modules[m.Name] = m
		st.nesting.AddNode(m.Name)
	}
	if _, ok := st.modules[ir.MainModule]; !ok {
		return nil, fmt.Errorf("graph has no module '%s'", ir.MainModule)
	}

	for _, m := range g.Modules {
		for _, ins := range m.Instructions {
			for _, sub := range ins.Modules {
				if _, ok := st.modules[sub]; !ok {
					return nil, fmt.Errorf("instruction '%s' in module '%s': unknown module '%s'", ins.Name, m.Name, sub)
				}
				if err := st.nesting.AddEdge(m.Name, sub); err != nil {
					return nil, fmt.Errorf("instruction '%s' in module '%s': %w", ins.Name, m.Name, err)
				}
			}
		}
	}
	if err := st.nesting.DetectCycles(); err != nil {
		return nil, fmt.Errorf("module nesting: %w", err)
	}
	return st, nil
}

// checkName accepts plain names: no module qualifier, no index and no
// leading '@'.
func checkName(name string) error {
	addr, err := nodeid.Parse(name)
	if err != nil {
		return err
	}
	if addr.Module != "" || addr.HasIndex() || strings.HasPrefix(name, "@") {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

// declare creates every module with its parameters and literals, and
// records the names of all declarations.
func (st *state) declare() error {
	for _, cm := range st.graph.Modules {
		names := make(map[string]declKind)
		add := func(name string, kind declKind) error {
			if err := checkName(name); err != nil {
				return fmt.Errorf("module '%s': %w", cm.Name, err)
			}
			if _, dup := names[name]; dup {
				return fmt.Errorf("module '%s': duplicate declaration '%s'", cm.Name, name)
			}
			names[name] = kind
			return nil
		}
		for _, p := range cm.Parameters {
			if err := add(p.Name, parameterDecl); err != nil {
				return err
			}
		}
		for _, l := range cm.Literals {
			if err := add(l.Name, literalDecl); err != nil {
				return err
			}
		}
		for _, ins := range cm.Instructions {
			if err := add(ins.Name, instructionDecl); err != nil {
				return err
			}
		}
		st.decls[cm.Name] = names

		m := st.prog.Main()
		if cm.Name != ir.MainModule {
			m = st.prog.CreateModule(cm.Name)
		}
		for _, p := range cm.Parameters {
			s, err := parameterShape(p)
			if err != nil {
				return fmt.Errorf("module '%s', parameter '%s': %w", cm.Name, p.Name, err)
			}
			m.AddParameter(p.Name, s)
		}
		// Literals go to the front one by one, so add them back to front.
		for _, l := range slices.Backward(cm.Literals) {
			t, err := literalTensor(l)
			if err != nil {
				return fmt.Errorf("module '%s', literal '%s': %w", cm.Name, l.Name, err)
			}
			if err := m.SetName(m.AddLiteral(t), l.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func parameterShape(p *config.Parameter) (shape.Shape, error) {
	t, err := elementType(p.Type, p.Lens)
	if err != nil {
		return shape.Shape{}, err
	}
	if p.Strides == nil {
		return shape.New(t, p.Lens...), nil
	}
	if len(p.Strides) != len(p.Lens) {
		return shape.Shape{}, fmt.Errorf("%d lens but %d strides", len(p.Lens), len(p.Strides))
	}
	return shape.WithStrides(t, p.Lens, p.Strides), nil
}

func literalTensor(l *config.Literal) (tensor.Tensor, error) {
	t, err := elementType(l.Type, l.Lens)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return tensor.FromValues(shape.New(t, l.Lens...), l.Data)
}

func elementType(name string, lens []int) (shape.Type, error) {
	t, err := shape.ParseType(name)
	if err != nil {
		return "", err
	}
	if t == shape.Tuple {
		return "", fmt.Errorf("tuple values cannot be declared")
	}
	for _, l := range lens {
		if l < 0 {
			return "", fmt.Errorf("negative dimension %d", l)
		}
	}
	return t, nil
}

// module returns the IR module created for a declared module name.
func (st *state) module(name string) *ir.Module {
	m, _ := st.prog.Module(name)
	return m
}
