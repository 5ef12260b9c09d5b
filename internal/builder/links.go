package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vk/graphc/internal/dag"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/nodeid"
)

// target is a resolved input address.
type target struct {
	module string
	name   string
	kind   declKind
	index  int
}

func (t target) id() string { return nodeid.Qualified(t.module, t.name).String() }

// resolve finds the declaration an address in module mod refers to. An
// unqualified name is looked up in mod first and then in the modules
// enclosing it, where it must be unique.
func (st *state) resolve(mod, raw string) (target, error) {
	addr, err := nodeid.Parse(raw)
	if err != nil {
		return target{}, err
	}

	if addr.Module != "" {
		if _, ok := st.modules[addr.Module]; !ok {
			return target{}, fmt.Errorf("reference '%s': unknown module '%s'", raw, addr.Module)
		}
		if addr.Module != mod && !st.encloses(addr.Module, mod) {
			return target{}, fmt.Errorf("reference '%s': module '%s' does not enclose module '%s'", raw, addr.Module, mod)
		}
		kind, ok := st.decls[addr.Module][addr.Name]
		if !ok {
			return target{}, fmt.Errorf("reference '%s': '%s' is not declared in module '%s'", raw, addr.Name, addr.Module)
		}
		return target{module: addr.Module, name: addr.Name, kind: kind, index: addr.Index}, nil
	}

	if kind, ok := st.decls[mod][addr.Name]; ok {
		return target{module: mod, name: addr.Name, kind: kind, index: addr.Index}, nil
	}
	ancestors, err := st.nesting.Ancestors(mod)
	if err != nil {
		return target{}, err
	}
	var found []string
	for _, a := range ancestors {
		if _, ok := st.decls[a][addr.Name]; ok {
			found = append(found, a)
		}
	}
	switch len(found) {
	case 0:
		return target{}, fmt.Errorf("reference '%s': '%s' is not declared in module '%s' or a module enclosing it", raw, addr.Name, mod)
	case 1:
		return target{module: found[0], name: addr.Name, kind: st.decls[found[0]][addr.Name], index: addr.Index}, nil
	default:
		qualified := make([]string, len(found))
		for i, a := range found {
			qualified[i] = nodeid.Qualified(a, addr.Name).String()
		}
		return target{}, fmt.Errorf("ambiguous reference '%s' in module '%s': qualify it as one of %s", raw, mod, strings.Join(qualified, ", "))
	}
}

// encloses reports whether module outer runs module inner, directly or not.
func (st *state) encloses(outer, inner string) bool {
	ancestors, err := st.nesting.Ancestors(inner)
	return err == nil && slices.Contains(ancestors, outer)
}

func retID(module string) string { return nodeid.Qualified(module, retName).String() }

// link builds the dependency graph of all instructions and module outputs
// and returns the order to emit them in.
func (st *state) link() ([]string, error) {
	deps := dag.New()
	for _, cm := range st.graph.Modules {
		for _, ins := range cm.Instructions {
			id := nodeid.Qualified(cm.Name, ins.Name).String()
			deps.AddNode(id)
			st.nodes[id] = node{module: cm.Name, ins: ins}
		}
		deps.AddNode(retID(cm.Name))
		st.nodes[retID(cm.Name)] = node{module: cm.Name}
	}

	depend := func(mod, raw, id string) error {
		t, err := st.resolve(mod, raw)
		if err != nil {
			return err
		}
		if t.kind != instructionDecl {
			return nil
		}
		return deps.AddEdge(t.id(), id)
	}

	for _, cm := range st.graph.Modules {
		for _, ins := range cm.Instructions {
			id := nodeid.Qualified(cm.Name, ins.Name).String()
			for _, raw := range ins.Inputs {
				if err := depend(cm.Name, raw, id); err != nil {
					return nil, fmt.Errorf("instruction '%s': %w", id, err)
				}
			}
			for _, sub := range ins.Modules {
				if err := deps.AddEdge(retID(sub), id); err != nil {
					return nil, fmt.Errorf("instruction '%s': %w", id, err)
				}
			}
			if err := deps.AddEdge(id, retID(cm.Name)); err != nil {
				return nil, err
			}
		}
		for _, raw := range cm.Outputs {
			t, err := st.resolve(cm.Name, raw)
			if err != nil {
				return nil, fmt.Errorf("outputs of module '%s': %w", cm.Name, err)
			}
			if t.kind == instructionDecl && t.module != cm.Name {
				if err := deps.AddEdge(t.id(), retID(cm.Name)); err != nil {
					return nil, err
				}
			}
		}
	}

	order, err := deps.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("dependency graph: %w", err)
	}
	return order, nil
}

// ref returns the instruction an address in module mod refers to. Tuple
// element addresses read through a get_tuple_elem added to mod.
func (st *state) ref(mod, raw string) (ir.Ref, error) {
	t, err := st.resolve(mod, raw)
	if err != nil {
		return ir.Ref{}, err
	}
	r, ok := st.module(t.module).Lookup(t.name)
	if !ok {
		return ir.Ref{}, fmt.Errorf("reference '%s': '%s' has not been built", raw, t.id())
	}
	if t.index < 0 {
		return r, nil
	}

	key := mod + "|" + nodeid.Qualified(t.module, t.name).Element(t.index).String()
	if elem, ok := st.elems[key]; ok {
		return elem, nil
	}
	o, err := st.ops.MakeGo("get_tuple_elem", map[string]any{"index": t.index})
	if err != nil {
		return ir.Ref{}, err
	}
	elem, err := st.module(mod).AddInstruction(o, []ir.Ref{r})
	if err != nil {
		return ir.Ref{}, fmt.Errorf("reference '%s': %w", raw, err)
	}
	st.elems[key] = elem
	return elem, nil
}

// emit inserts one node of the dependency graph.
func (st *state) emit(id string) error {
	n := st.nodes[id]
	m := st.module(n.module)
	if n.ins == nil {
		outputs := st.modules[n.module].Outputs
		if len(outputs) == 0 {
			return nil
		}
		refs := make([]ir.Ref, len(outputs))
		for i, raw := range outputs {
			r, err := st.ref(n.module, raw)
			if err != nil {
				return fmt.Errorf("outputs of module '%s': %w", n.module, err)
			}
			refs[i] = r
		}
		if _, err := m.AddReturn(refs...); err != nil {
			return fmt.Errorf("outputs of module '%s': %w", n.module, err)
		}
		return nil
	}

	ins := n.ins
	inputs := make([]ir.Ref, len(ins.Inputs))
	for i, raw := range ins.Inputs {
		r, err := st.ref(n.module, raw)
		if err != nil {
			return fmt.Errorf("instruction '%s': %w", id, err)
		}
		inputs[i] = r
	}
	mods := make([]*ir.Module, len(ins.Modules))
	for i, name := range ins.Modules {
		mods[i] = st.module(name)
	}

	o, err := st.ops.Make(ins.Op, ins.Attributes)
	if err != nil {
		return fmt.Errorf("instruction '%s': %w", id, err)
	}
	r, err := m.AddInstruction(o, inputs, mods...)
	if err != nil {
		return fmt.Errorf("instruction '%s': %w", id, err)
	}
	return m.SetName(r, ins.Name)
}
