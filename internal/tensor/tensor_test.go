// internal/tensor/tensor_test.go
package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/shape"
)

func TestFromValues_StandardAndPermuted(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}

	std, err := FromValues(shape.New(shape.Float, 2, 3), values)
	require.NoError(t, err)
	assert.Equal(t, values, std.Values())
	assert.Equal(t, 6.0, std.At(1, 2))

	perm, err := FromValues(shape.WithStrides(shape.Float, []int{2, 3}, []int{1, 2}), values)
	require.NoError(t, err)
	assert.Equal(t, values, perm.Values())
	assert.Equal(t, values, perm.Contiguous().Values())
	assert.True(t, perm.Contiguous().Shape().Standard())
}

func TestFromValues_WrongCount(t *testing.T) {
	_, err := FromValues(shape.New(shape.Float, 2), []float64{1})
	require.Error(t, err)
}

func TestView_Broadcast(t *testing.T) {
	row, err := FromValues(shape.New(shape.Float, 3), []float64{1, 2, 3})
	require.NoError(t, err)

	b := row.View(shape.WithStrides(shape.Float, []int{2, 3}, []int{0, 1}))
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, b.Values())

	assert.Panics(t, func() { row.View(shape.New(shape.Float, 4)) })
}

func TestConvert_Saturates(t *testing.T) {
	x, err := FromValues(shape.New(shape.Float, 4), []float64{-3.7, 2.9, 300, 0.5})
	require.NoError(t, err)

	u := x.Convert(shape.Uint8)
	assert.Equal(t, shape.Uint8, u.Shape().Type())
	assert.Equal(t, []float64{0, 2, 255, 0}, u.Values())

	i := x.Convert(shape.Int8)
	assert.Equal(t, []float64{-3, 2, 127, 0}, i.Values())
}

func TestCast(t *testing.T) {
	testCases := []struct {
		name     string
		typ      shape.Type
		in       float64
		expected float64
	}{
		{name: "bool", typ: shape.Bool, in: 0.2, expected: 1},
		{name: "float", typ: shape.Float, in: 0.5, expected: 0.5},
		{name: "half", typ: shape.Half, in: 1.5, expected: 1.5},
		{name: "int32 truncates", typ: shape.Int32, in: -1.9, expected: -1},
		{name: "uint16 saturates", typ: shape.Uint16, in: 1e9, expected: 65535},
		{name: "int64", typ: shape.Int64, in: 42, expected: 42},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Cast(tc.typ, tc.in))
		})
	}
}

func TestTuple(t *testing.T) {
	a := Scalar(shape.Int32, 7)
	b := New(shape.New(shape.Float, 2))

	tup := Tuple(a, b)
	require.True(t, tup.Shape().IsTuple())
	require.Len(t, tup.Elements(), 2)
	assert.Equal(t, 7.0, tup.Element(0).At(0))
	assert.Equal(t, []float64{0, 0}, tup.Element(1).Values())
}
