package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
	"github.com/vk/graphc/internal/testutil"
)

func TestRun_Elementwise(t *testing.T) {
	m := ir.NewModule("main")
	x := m.AddParameter("x", shape.New(shape.Float, 2, 3))
	tr := testutil.Add(t, m, "transpose", map[string]any{"permutation": []any{1, 0}}, x)
	c := testutil.Add(t, m, "contiguous", nil, tr)
	testutil.Add(t, m, "mul", nil, c, c)

	out, err := Run(context.Background(), m, map[string]tensor.Tensor{
		"x": testutil.Tensor(t, shape.Float, []int{2, 3}, 1, 2, 3, 4, 5, 6),
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int{3, 2}, out[0].Shape().Lens())
	testutil.ValuesClose(t, []float64{1, 16, 4, 25, 9, 36}, out[0], 0)
}

func TestRun_Parameters(t *testing.T) {
	m := ir.NewModule("main")
	x := m.AddParameter("x", shape.New(shape.Float, 2, 2))
	testutil.Add(t, m, "neg", nil, x)

	t.Run("missing value", func(t *testing.T) {
		_, err := Run(context.Background(), m, nil)
		assert.ErrorContains(t, err, "no value for parameter 'x'")
	})

	t.Run("wrong lens", func(t *testing.T) {
		_, err := Run(context.Background(), m, map[string]tensor.Tensor{
			"x": testutil.Ramp(shape.Float, []int{4}, 0, 1),
		})
		assert.ErrorContains(t, err, "parameter 'x'")
	})

	t.Run("other layout is copied in", func(t *testing.T) {
		permuted := shape.WithStrides(shape.Float, []int{2, 2}, []int{1, 2})
		v, err := tensor.FromValues(permuted, []float64{1, 2, 3, 4})
		require.NoError(t, err)

		out, err := Run(context.Background(), m, map[string]tensor.Tensor{"x": v})

		require.NoError(t, err)
		testutil.ValuesClose(t, []float64{-1, -2, -3, -4}, out[0], 0)
	})
}

func TestRun_If(t *testing.T) {
	p := ir.NewProgram()
	main := p.Main()
	cond := main.AddParameter("cond", shape.New(shape.Bool))
	x := main.AddParameter("x", shape.New(shape.Float, 3))

	then := p.CreateModule("then")
	testutil.Return(t, then, testutil.Add(t, then, "add", nil, x, x))
	els := p.CreateModule("else")
	testutil.Return(t, els, testutil.Add(t, els, "neg", nil, x))

	_, err := main.AddInstruction(op.If{}, []ir.Ref{cond}, then, els)
	require.NoError(t, err)

	tests := []struct {
		name string
		cond float64
		want []float64
	}{
		{name: "then branch", cond: 1, want: []float64{2, 4, 6}},
		{name: "else branch", cond: 0, want: []float64{-1, -2, -3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := RunProgram(context.Background(), p, map[string]tensor.Tensor{
				"cond": tensor.Scalar(shape.Bool, tc.cond),
				"x":    testutil.Tensor(t, shape.Float, []int{3}, 1, 2, 3),
			})

			require.NoError(t, err)
			testutil.ValuesClose(t, tc.want, out[0], 0)
		})
	}
}

func TestRun_Loop(t *testing.T) {
	p := ir.NewProgram()
	main := p.Main()
	x := main.AddParameter("x", shape.New(shape.Float, 2))
	trip := main.AddLiteral(tensor.Scalar(shape.Int64, 3))
	cond := main.AddLiteral(tensor.Scalar(shape.Bool, 1))

	body := p.CreateModule("body")
	body.AddParameter("iter", shape.New(shape.Int64))
	keep := body.AddParameter("cond", shape.New(shape.Bool))
	acc := body.AddParameter("acc", shape.New(shape.Float, 2))
	one := body.AddLiteral(testutil.Tensor(t, shape.Float, []int{2}, 1, 1))
	next := testutil.Add(t, body, "add", nil, acc, one)
	testutil.Return(t, body, keep, next, next)

	loop, err := main.AddInstruction(op.Loop{MaxIterations: 5}, []ir.Ref{trip, cond, x}, body)
	require.NoError(t, err)
	final := testutil.Add(t, main, "get_tuple_elem", map[string]any{"index": 0}, loop)
	scan := testutil.Add(t, main, "get_tuple_elem", map[string]any{"index": 1}, loop)
	testutil.Return(t, main, final, scan)
	require.NoError(t, p.Validate())

	out, err := RunProgram(context.Background(), p, map[string]tensor.Tensor{
		"x": testutil.Tensor(t, shape.Float, []int{2}, 10, 20),
	})

	require.NoError(t, err)
	require.Len(t, out, 2)
	testutil.ValuesClose(t, []float64{13, 23}, out[0], 0)
	assert.Equal(t, []int{5, 2}, out[1].Shape().Lens())
	testutil.ValuesClose(t, []float64{11, 21, 12, 22, 13, 23, 0, 0, 0, 0}, out[1], 0)
}

type opaque struct{}

func (opaque) Name() string { return "opaque" }

func (opaque) ComputeShape(inputs []shape.Shape, _ []op.Subgraph) (shape.Shape, error) {
	return inputs[0], nil
}

func TestRun_NotComputable(t *testing.T) {
	m := ir.NewModule("main")
	x := m.AddParameter("x", shape.New(shape.Float, 2))
	_, err := m.AddInstruction(opaque{}, []ir.Ref{x})
	require.NoError(t, err)

	_, err = Run(context.Background(), m, map[string]tensor.Tensor{"x": testutil.Ramp(shape.Float, []int{2}, 0, 1)})

	assert.ErrorIs(t, err, ErrNotComputable)
}
