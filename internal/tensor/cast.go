// internal/tensor/cast.go
package tensor

import (
	"math"

	"github.com/vk/graphc/internal/shape"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// Cast rounds v to what an element of type t can hold. Integer targets
// truncate toward zero and saturate at the type range; NaN becomes zero.
func Cast(t shape.Type, v float64) float64 {
	switch t {
	case shape.Bool:
		if v != 0 && !math.IsNaN(v) {
			return 1
		}
		return 0
	case shape.Half:
		return float64(float16.Fromfloat32(float32(v)).Float32())
	case shape.Float:
		return castFloat[float32](v)
	case shape.Double:
		return castFloat[float64](v)
	case shape.Uint8:
		return castInt[uint8](t, v)
	case shape.Int8:
		return castInt[int8](t, v)
	case shape.Uint16:
		return castInt[uint16](t, v)
	case shape.Int16:
		return castInt[int16](t, v)
	case shape.Int32:
		return castInt[int32](t, v)
	case shape.Int64:
		return castInt[int64](t, v)
	case shape.Uint32:
		return castInt[uint32](t, v)
	case shape.Uint64:
		return castInt[uint64](t, v)
	}
	return v
}

func castFloat[T constraints.Float](v float64) float64 {
	return float64(T(v))
}

func castInt[T constraints.Integer](t shape.Type, v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v <= t.Min() {
		return t.Min()
	}
	if v >= t.Max() {
		return t.Max()
	}
	return float64(T(v))
}

