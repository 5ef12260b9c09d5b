package op

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

type fakeModule struct {
	name   string
	params []shape.Shape
	outs   []shape.Shape
}

func (f fakeModule) Name() string                   { return f.name }
func (f fakeModule) ParameterShapes() []shape.Shape { return f.params }
func (f fakeModule) OutputShapes() []shape.Shape    { return f.outs }

var (
	std23  = shape.New(shape.Float, 2, 3)
	perm23 = shape.WithStrides(shape.Float, []int{2, 3}, []int{1, 2})
	bcast  = shape.WithStrides(shape.Float, []int{2, 3}, []int{0, 1})
	cond   = shape.New(shape.Bool)
)

func intp(v int) *int { return &v }

func TestComputeShape(t *testing.T) {
	add := MustMake("add", nil)
	relu := MustMake("relu", nil)

	testCases := []struct {
		name     string
		op       Operation
		inputs   []shape.Shape
		mods     []Subgraph
		expected shape.Shape
	}{
		{name: "unary keeps packed layout", op: relu, inputs: []shape.Shape{perm23}, expected: perm23},
		{name: "unary standardizes broadcast", op: relu, inputs: []shape.Shape{bcast}, expected: std23},
		{name: "binary keeps identical packed layout", op: add, inputs: []shape.Shape{perm23, perm23}, expected: perm23},
		{name: "binary mixed layouts", op: add, inputs: []shape.Shape{perm23, std23}, expected: std23},
		{name: "comparison yields bool", op: MustMake("less", nil), inputs: []shape.Shape{std23, std23}, expected: std23.WithType(shape.Bool)},
		{name: "contiguous", op: Contiguous{}, inputs: []shape.Shape{perm23}, expected: std23},
		{
			name:     "transpose",
			op:       Transpose{Permutation: []int{1, 0}},
			inputs:   []shape.Shape{std23},
			expected: shape.WithStrides(shape.Float, []int{3, 2}, []int{1, 3}),
		},
		{
			name:     "multibroadcast scalar",
			op:       Multibroadcast{OutLens: []int{1, 3, 6, 6}},
			inputs:   []shape.Shape{shape.New(shape.Float)},
			expected: shape.WithStrides(shape.Float, []int{1, 3, 6, 6}, []int{0, 0, 0, 0}),
		},
		{
			name:     "broadcast along axis",
			op:       Broadcast{Axis: 1, Dims: []int{1, 3, 6, 6}},
			inputs:   []shape.Shape{shape.New(shape.Float, 3)},
			expected: shape.WithStrides(shape.Float, []int{1, 3, 6, 6}, []int{0, 1, 0, 0}),
		},
		{name: "reshape infers dimension", op: Reshape{Dims: []int{0, -1}}, inputs: []shape.Shape{shape.New(shape.Float, 2, 3, 4)}, expected: shape.New(shape.Float, 2, 12)},
		{name: "convert", op: Convert{TargetType: shape.Int32}, inputs: []shape.Shape{perm23}, expected: perm23.WithType(shape.Int32)},
		{name: "clip", op: Clip{}, inputs: []shape.Shape{std23, std23, std23}, expected: std23},
		{name: "literal", op: Literal{Type: shape.Int8, Lens: []int{2}, Data: []float64{1, 2}}, expected: shape.New(shape.Int8, 2)},
		{name: "param", op: NewParam("x", perm23), expected: perm23},
		{name: "return", op: Return{}, inputs: []shape.Shape{perm23, cond}, expected: shape.NewTuple(perm23, cond)},
		{name: "get_tuple_elem", op: GetTupleElem{Index: 1}, inputs: []shape.Shape{shape.NewTuple(std23, cond)}, expected: cond},
		{name: "allocate", op: Allocate{Type: shape.Half, Lens: []int{4}}, expected: shape.New(shape.Half, 4)},
		{
			name:     "if takes non-standard branch layout",
			op:       If{},
			inputs:   []shape.Shape{cond},
			mods:     []Subgraph{fakeModule{name: "then", outs: []shape.Shape{std23}}, fakeModule{name: "else", outs: []shape.Shape{perm23}}},
			expected: perm23,
		},
		{
			name:     "if with several outputs",
			op:       If{},
			inputs:   []shape.Shape{cond},
			mods:     []Subgraph{fakeModule{outs: []shape.Shape{std23, cond}}, fakeModule{outs: []shape.Shape{std23, cond}}},
			expected: shape.NewTuple(std23, cond),
		},
		{
			name:   "loop",
			op:     Loop{MaxIterations: 4},
			inputs: []shape.Shape{shape.New(shape.Int64), cond, std23},
			mods: []Subgraph{fakeModule{
				params: []shape.Shape{shape.New(shape.Int64), cond, std23},
				outs:   []shape.Shape{cond, std23, shape.New(shape.Float, 3)},
			}},
			expected: shape.NewTuple(std23, shape.New(shape.Float, 4, 3)),
		},
		{name: "quantize default type", op: QuantizeLinear{Axis: intp(1)}, inputs: []shape.Shape{perm23, shape.New(shape.Float)}, expected: shape.New(shape.Uint8, 2, 3)},
		{name: "quantize zero point type", op: QuantizeLinear{Axis: intp(1)}, inputs: []shape.Shape{std23, shape.New(shape.Float, 3), shape.New(shape.Int8, 3)}, expected: shape.New(shape.Int8, 2, 3)},
		{name: "dequantize", op: DequantizeLinear{Axis: intp(0)}, inputs: []shape.Shape{shape.New(shape.Uint8, 2, 3), shape.New(shape.Float, 2)}, expected: std23},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op.ComputeShape(tc.inputs, tc.mods)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
		})
	}
}

func TestComputeShape_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		op     Operation
		inputs []shape.Shape
		mods   []Subgraph
	}{
		{name: "unary arity", op: MustMake("abs", nil), inputs: []shape.Shape{std23, std23}},
		{name: "binary lens mismatch", op: MustMake("mul", nil), inputs: []shape.Shape{std23, shape.New(shape.Float, 3, 2)}},
		{name: "binary type mismatch", op: MustMake("sub", nil), inputs: []shape.Shape{std23, std23.WithType(shape.Half)}},
		{name: "reshape needs standard input", op: Reshape{Dims: []int{6}}, inputs: []shape.Shape{perm23}},
		{name: "reshape element count", op: Reshape{Dims: []int{4}}, inputs: []shape.Shape{std23}},
		{name: "transpose not a permutation", op: Transpose{Permutation: []int{0, 0}}, inputs: []shape.Shape{std23}},
		{name: "multibroadcast incompatible", op: Multibroadcast{OutLens: []int{2, 4}}, inputs: []shape.Shape{std23}},
		{name: "broadcast mismatch", op: Broadcast{Axis: 0, Dims: []int{3, 3}}, inputs: []shape.Shape{shape.New(shape.Float, 2)}},
		{name: "literal data count", op: Literal{Type: shape.Float, Lens: []int{2}, Data: []float64{1}}},
		{name: "get_tuple_elem not a tuple", op: GetTupleElem{}, inputs: []shape.Shape{std23}},
		{name: "get_tuple_elem out of range", op: GetTupleElem{Index: 2}, inputs: []shape.Shape{shape.NewTuple(std23)}},
		{name: "if non-bool condition", op: If{}, inputs: []shape.Shape{shape.New(shape.Int32)}, mods: []Subgraph{fakeModule{outs: []shape.Shape{std23}}, fakeModule{outs: []shape.Shape{std23}}}},
		{name: "if branch lens differ", op: If{}, inputs: []shape.Shape{cond}, mods: []Subgraph{fakeModule{outs: []shape.Shape{std23}}, fakeModule{outs: []shape.Shape{shape.New(shape.Float, 3, 2)}}}},
		{name: "if one module", op: If{}, inputs: []shape.Shape{cond}, mods: []Subgraph{fakeModule{outs: []shape.Shape{std23}}}},
		{name: "contiguous with module", op: Contiguous{}, inputs: []shape.Shape{std23}, mods: []Subgraph{fakeModule{}}},
		{name: "quantize per-axis length", op: QuantizeLinear{Axis: intp(0)}, inputs: []shape.Shape{std23, shape.New(shape.Float, 3)}},
		{name: "quantize axis out of range", op: QuantizeLinear{Axis: intp(2)}, inputs: []shape.Shape{std23, shape.New(shape.Float, 3)}},
		{name: "quantize scale type", op: QuantizeLinear{}, inputs: []shape.Shape{std23, shape.New(shape.Half)}},
		{name: "dequantize integer scale", op: DequantizeLinear{}, inputs: []shape.Shape{std23, shape.New(shape.Int32)}},
		{name: "convert to tuple", op: Convert{TargetType: shape.Tuple}, inputs: []shape.Shape{std23}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.op.ComputeShape(tc.inputs, tc.mods)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShape), "got %v", err)
		})
	}
}

func TestTuneAxis(t *testing.T) {
	testCases := []struct {
		axis     int
		expected int
		fails    bool
	}{
		{axis: -1, expected: 3},
		{axis: 0, expected: 0},
		{axis: 3, expected: 3},
		{axis: -4, expected: 0},
		{axis: 4, fails: true},
		{axis: -5, fails: true},
	}

	for _, tc := range testCases {
		got, err := TuneAxis(4, tc.axis, "quantizelinear")
		if tc.fails {
			require.Error(t, err, "axis %d", tc.axis)
			assert.True(t, errors.Is(err, ErrShape))
			continue
		}
		require.NoError(t, err, "axis %d", tc.axis)
		assert.Equal(t, tc.expected, got, "axis %d", tc.axis)
	}
}

func TestQuantizeCompute(t *testing.T) {
	x, err := tensor.FromValues(shape.New(shape.Float, 2, 2), []float64{-1.25, 0.25, 0.75, 200})
	require.NoError(t, err)
	scale := tensor.Scalar(shape.Float, 0.5)
	zp := tensor.Scalar(shape.Uint8, 3)

	q := QuantizeLinear{}
	out, err := q.ComputeShape([]shape.Shape{x.Shape(), scale.Shape(), zp.Shape()}, nil)
	require.NoError(t, err)

	y, err := q.Compute(out, []tensor.Tensor{x, scale, zp})
	require.NoError(t, err)
	// -2.5 -> -2, 0.5 -> 0, 1.5 -> 2, 400 saturates
	assert.Equal(t, []float64{1, 3, 5, 255}, y.Values())

	d := DequantizeLinear{}
	dout, err := d.ComputeShape([]shape.Shape{y.Shape(), scale.Shape(), zp.Shape()}, nil)
	require.NoError(t, err)
	back, err := d.Compute(dout, []tensor.Tensor{y, scale, zp})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0, 1, 126}, back.Values())
}

func TestQuantizeCompute_PerAxisNeedsAxis(t *testing.T) {
	x := tensor.New(std23)
	scale, err := tensor.FromValues(shape.New(shape.Float, 3), []float64{1, 2, 4})
	require.NoError(t, err)

	_, err = QuantizeLinear{}.Compute(shape.New(shape.Uint8, 2, 3), []tensor.Tensor{x, scale})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedAttribute))
}
