package hcl_adapter

import (
	"bytes"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/graphc/internal/config"
)

func TestWrite(t *testing.T) {
	g := &config.Graph{Modules: []*config.Module{
		{
			Name:       "main",
			Parameters: []*config.Parameter{{Name: "x", Type: "float_type", Lens: []int{2}}},
			Instructions: []*config.Instruction{
				{Name: "plain", Op: "neg", Inputs: []string{"x"}, Attributes: cty.EmptyObjectVal},
				{
					Name:   "q",
					Op:     "quantizelinear",
					Inputs: []string{"plain", "x"},
					Attributes: cty.ObjectVal(map[string]cty.Value{
						"axis":  cty.NullVal(cty.Number),
						"extra": cty.StringVal("kept"),
					}),
				},
			},
		},
		{Name: "body"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))

	file, diags := hclsyntax.ParseConfig(buf.Bytes(), "out.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	blocks := file.Body.(*hclsyntax.Body).Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, []string{"main"}, blocks[0].Labels)
	assert.Equal(t, []string{"body"}, blocks[1].Labels)

	ins := blocks[0].Body.Blocks
	require.Len(t, ins, 3)
	assert.NotContains(t, ins[1].Body.Attributes, "attributes", "empty attributes are omitted")
	assert.NotContains(t, ins[0].Body.Attributes, "strides", "standard strides are omitted")
	assert.Contains(t, ins[2].Body.Attributes, "attributes")
	assert.NotContains(t, buf.String(), "axis", "null attributes are omitted")
	assert.NotContains(t, blocks[0].Body.Attributes, "outputs")
}
