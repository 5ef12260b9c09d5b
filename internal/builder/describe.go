package builder

import (
	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/nodeid"
	"github.com/vk/graphc/internal/op"
)

// Describe produces the graph description of p. Inputs from an enclosing
// module are written with a module qualifier; tuple reads stay explicit
// get_tuple_elem instructions.
func Describe(p *ir.Program) *config.Graph {
	g := &config.Graph{}
	for _, m := range p.Modules() {
		g.Modules = append(g.Modules, describeModule(m))
	}
	return g
}

func describeModule(m *ir.Module) *config.Module {
	cm := &config.Module{Name: m.Name()}
	for r := range m.Instructions() {
		switch o := r.Op().(type) {
		case op.Param:
			p := &config.Parameter{Name: r.Name(), Type: o.Type.String(), Lens: o.Lens}
			if s := o.Shape(); !s.Standard() {
				p.Strides = s.Strides()
			}
			cm.Parameters = append(cm.Parameters, p)
		case op.Literal:
			cm.Literals = append(cm.Literals, &config.Literal{Name: r.Name(), Type: o.Type.String(), Lens: o.Lens, Data: o.Data})
		case op.Return:
			cm.Outputs = addresses(m, r.Inputs())
		default:
			ins := &config.Instruction{
				Name:       r.Name(),
				Op:         o.Name(),
				Inputs:     addresses(m, r.Inputs()),
				Attributes: op.Attributes(o),
			}
			for _, sub := range r.Modules() {
				ins.Modules = append(ins.Modules, sub.Name())
			}
			cm.Instructions = append(cm.Instructions, ins)
		}
	}
	return cm
}

func addresses(m *ir.Module, refs []ir.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		if r.Module() == m {
			out[i] = nodeid.New(r.Name()).String()
		} else {
			out[i] = nodeid.Qualified(r.Module().Name(), r.Name()).String()
		}
	}
	return out
}
