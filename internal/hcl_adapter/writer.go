package hcl_adapter

import (
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/graphc/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Writer serializes graphs in the format the Loader reads.
type Writer struct{}

var _ config.Writer = (*Writer)(nil)

// NewWriter creates a new HCL graph writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteGraph writes one module block per module of g.
func (Writer) WriteGraph(w io.Writer, g *config.Graph) error {
	_, err := Format(g).WriteTo(w)
	return err
}

// Write is WriteGraph on a zero Writer.
func Write(w io.Writer, g *config.Graph) error {
	return Writer{}.WriteGraph(w, g)
}

// Format builds the HCL file for g.
func Format(g *config.Graph) *hclwrite.File {
	f := hclwrite.NewEmptyFile()
	root := f.Body()
	for i, m := range g.Modules {
		if i > 0 {
			root.AppendNewline()
		}
		writeModule(root.AppendNewBlock("module", []string{m.Name}).Body(), m)
	}
	return f
}

func writeModule(body *hclwrite.Body, m *config.Module) {
	for _, p := range m.Parameters {
		pb := body.AppendNewBlock("parameter", []string{p.Name}).Body()
		pb.SetAttributeValue("type", cty.StringVal(p.Type))
		setInts(pb, "lens", p.Lens)
		setInts(pb, "strides", p.Strides)
	}
	for _, l := range m.Literals {
		lb := body.AppendNewBlock("literal", []string{l.Name}).Body()
		lb.SetAttributeValue("type", cty.StringVal(l.Type))
		setInts(lb, "lens", l.Lens)
		data := make([]cty.Value, len(l.Data))
		for i, v := range l.Data {
			data[i] = cty.NumberFloatVal(v)
		}
		lb.SetAttributeValue("data", cty.TupleVal(data))
	}
	for _, ins := range m.Instructions {
		ib := body.AppendNewBlock("instruction", []string{ins.Name}).Body()
		ib.SetAttributeValue("op", cty.StringVal(ins.Op))
		setStrings(ib, "inputs", ins.Inputs)
		setStrings(ib, "modules", ins.Modules)
		if attrs := nonNull(ins.Attributes); len(attrs) > 0 {
			ib.SetAttributeValue("attributes", cty.ObjectVal(attrs))
		}
	}
	setStrings(body, "outputs", m.Outputs)
}

func setInts(body *hclwrite.Body, name string, vs []int) {
	if vs == nil {
		return
	}
	vals := make([]cty.Value, len(vs))
	for i, v := range vs {
		vals[i] = cty.NumberIntVal(int64(v))
	}
	body.SetAttributeValue(name, cty.TupleVal(vals))
}

func setStrings(body *hclwrite.Body, name string, vs []string) {
	if len(vs) == 0 {
		return
	}
	vals := make([]cty.Value, len(vs))
	for i, v := range vs {
		vals[i] = cty.StringVal(v)
	}
	body.SetAttributeValue(name, cty.TupleVal(vals))
}

// nonNull drops unset attributes; the loader treats them as defaults.
func nonNull(v cty.Value) map[string]cty.Value {
	if v.IsNull() || !v.CanIterateElements() {
		return nil
	}
	out := make(map[string]cty.Value)
	for k, e := range v.AsValueMap() {
		if !e.IsNull() {
			out[k] = e
		}
	}
	return out
}
