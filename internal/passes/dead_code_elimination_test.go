package passes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/pass"
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
	"github.com/vk/graphc/internal/testutil"
)

func TestDeadCodeElimination(t *testing.T) {
	p := ir.NewProgram()
	main := p.Main()
	cond := main.AddParameter("cond", shape.New(shape.Bool))
	x := main.AddParameter("x", shape.New(shape.Float, 2))
	main.AddParameter("unused", shape.New(shape.Float, 2))
	main.AddLiteral(tensor.Scalar(shape.Float, 1))
	neg := testutil.Add(t, main, "neg", nil, x)
	testutil.Add(t, main, "abs", nil, neg)
	shared := testutil.Add(t, main, "relu", nil, x)

	then := p.CreateModule("then")
	testutil.Add(t, then, "exp", nil, x)
	testutil.Return(t, then, testutil.Add(t, then, "abs", nil, shared))
	els := p.CreateModule("else")
	testutil.Return(t, els, shared)
	iff, err := main.AddInstruction(op.If{}, []ir.Ref{cond}, then, els)
	require.NoError(t, err)
	testutil.Return(t, main, iff)

	require.NoError(t, pass.RunProgram(context.Background(), p, DeadCodeElimination{}))

	assert.Equal(t, []string{"@param", "@param", "@param", "relu", "if", "@return"}, testutil.Ops(main))
	assert.Equal(t, []string{"abs", "@return"}, testutil.Ops(then))
	assert.Equal(t, []string{"@return"}, testutil.Ops(els))
	assert.True(t, shared.Valid(), "read only by branches")
}

func TestDeadCodeElimination_KeepsImplicitTerminal(t *testing.T) {
	m := ir.NewModule("main")
	x := m.AddParameter("x", shape.New(shape.Float, 2))
	testutil.Add(t, m, "neg", nil, x)
	last := testutil.Add(t, m, "abs", nil, x)

	require.NoError(t, pass.Run(context.Background(), m, DeadCodeElimination{}))

	assert.Equal(t, []string{"@param", "abs"}, testutil.Ops(m))
	assert.Equal(t, last, m.Terminal())
}
