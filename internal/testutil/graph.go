package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// Add appends the named builtin operation to m and fails the test on error.
func Add(t *testing.T, m *ir.Module, name string, attrs map[string]any, inputs ...ir.Ref) ir.Ref {
	t.Helper()

	o, err := op.MakeGo(name, attrs)
	require.NoError(t, err)
	r, err := m.AddInstruction(o, inputs)
	require.NoError(t, err)
	return r
}

// Return sets the outputs of m and fails the test on error.
func Return(t *testing.T, m *ir.Module, outputs ...ir.Ref) ir.Ref {
	t.Helper()

	r, err := m.AddReturn(outputs...)
	require.NoError(t, err)
	return r
}

// Tensor builds a standard tensor from row-major values.
func Tensor(t *testing.T, typ shape.Type, lens []int, values ...float64) tensor.Tensor {
	t.Helper()

	v, err := tensor.FromValues(shape.New(typ, lens...), values)
	require.NoError(t, err)
	return v
}

// Ramp builds a standard tensor whose elements are start, start+step, ...
func Ramp(typ shape.Type, lens []int, start, step float64) tensor.Tensor {
	return tensor.Generate(shape.New(typ, lens...), func(_ []int, n int) float64 {
		return start + float64(n)*step
	})
}

// Names lists the instruction names of m in order.
func Names(m *ir.Module) []string {
	var out []string
	for r := range m.Instructions() {
		out = append(out, r.Name())
	}
	return out
}

// Ops lists the operation names of m in order.
func Ops(m *ir.Module) []string {
	var out []string
	for r := range m.Instructions() {
		out = append(out, r.Op().Name())
	}
	return out
}
