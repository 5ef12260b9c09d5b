package op

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/graphc/internal/shape"
)

func TestMake_AppliesAttributes(t *testing.T) {
	o, err := Make("transpose", cty.ObjectVal(map[string]cty.Value{
		"permutation": cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(0)}),
	}))
	require.NoError(t, err)
	assert.Equal(t, Transpose{Permutation: []int{1, 0}}, o)
}

func TestMake_BroadcastAttributeNames(t *testing.T) {
	o, err := MakeGo("broadcast", map[string]any{"axis": 1, "dims": []any{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, Broadcast{Axis: 1, Dims: []int{2, 3}}, o)
	assert.Equal(t, "broadcast{axis=1, dims={2, 3}}", String(o))

	o, err = MakeGo("multibroadcast", map[string]any{"output_lens": []any{4, 3}})
	require.NoError(t, err)
	assert.Equal(t, Multibroadcast{OutLens: []int{4, 3}}, o)

	_, err = MakeGo("broadcast", map[string]any{"axis": 0, "out_lens": []any{2}})
	assert.ErrorIs(t, err, ErrMalformedAttribute)
}

func TestMake_KeepsDefaults(t *testing.T) {
	o, err := MakeGo("convert", nil)
	require.NoError(t, err)
	assert.Equal(t, Convert{TargetType: shape.Float}, o)

	o, err = MakeGo("loop", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, Loop{MaxIterations: 10}, o)
}

func TestMake_OptionalAxis(t *testing.T) {
	o, err := MakeGo("quantizelinear", nil)
	require.NoError(t, err)
	assert.Nil(t, o.(QuantizeLinear).Axis)

	o, err = MakeGo("quantizelinear", map[string]any{"axis": -1})
	require.NoError(t, err)
	require.NotNil(t, o.(QuantizeLinear).Axis)
	assert.Equal(t, -1, *o.(QuantizeLinear).Axis)
}

func TestMake_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		op     string
		attrs  map[string]any
		target error
	}{
		{name: "unknown operation", op: "conv_transpose_3d", target: ErrUnknownOperation},
		{name: "unknown attribute", op: "transpose", attrs: map[string]any{"perm": []any{1, 0}}, target: ErrMalformedAttribute},
		{name: "wrong kind", op: "get_tuple_elem", attrs: map[string]any{"index": "first"}, target: ErrMalformedAttribute},
		{name: "null required value", op: "get_tuple_elem", attrs: map[string]any{"index": nil}, target: ErrMalformedAttribute},
		{name: "attributes on attribute-free op", op: "contiguous", attrs: map[string]any{"x": 1}, target: ErrMalformedAttribute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MakeGo(tc.op, tc.attrs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.target), "got %v", err)
		})
	}
}

type scaleBy struct {
	Factor float64 `cty:"factor"`
}

func (scaleBy) Name() string { return "scale_by" }

func (s scaleBy) ComputeShape(inputs []shape.Shape, mods []Subgraph) (shape.Shape, error) {
	return inputs[0], nil
}

func TestRegistry_CustomOperation(t *testing.T) {
	r := NewRegistry()
	r.Register(scaleBy{Factor: 1})

	o, err := r.MakeGo("scale_by", map[string]any{"factor": 2.5})
	require.NoError(t, err)
	assert.Equal(t, scaleBy{Factor: 2.5}, o)
	assert.Equal(t, []string{"scale_by"}, r.Names())

	assert.PanicsWithValue(t, "operation with name 'scale_by' already registered", func() {
		r.Register(scaleBy{})
	})
}

func TestDefault_HasBuiltins(t *testing.T) {
	for _, name := range []string{"@literal", "@param", "@return", "contiguous", "if", "loop", "quantizelinear", "dequantizelinear", "round", "clip"} {
		_, ok := Default().Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestEqualHashString(t *testing.T) {
	a := Transpose{Permutation: []int{1, 0}}
	b := MustMake("transpose", map[string]any{"permutation": []any{1, 0}})
	c := Transpose{Permutation: []int{0, 1}}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.Equal(t, Hash(a), Hash(b))
	assert.NotEqual(t, Hash(a), Hash(c))
	assert.False(t, Equal(Contiguous{}, Identity{}))

	assert.Equal(t, "transpose{permutation={1, 0}}", String(a))
	assert.Equal(t, "contiguous", String(Contiguous{}))
}
