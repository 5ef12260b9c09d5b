// internal/value/value.go
package value

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
)

// FromGo converts plain Go data into a cty value. Slices become tuples and
// string-keyed maps become objects, so heterogeneous attribute maps built in
// Go code convert without a declared type.
func FromGo(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	case bool:
		return cty.BoolVal(x), nil
	case string:
		return cty.StringVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, e := range x {
			ev, err := FromGo(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("index %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, e := range x {
			ev, err := FromGo(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unsupported Go value of type %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

// Equal reports whether two values are identical in type and content.
func Equal(a, b cty.Value) bool {
	return a.RawEquals(b)
}

// Hash returns a stable FNV-64a digest of the value and its type.
func Hash(v cty.Value) (uint64, error) {
	b, err := ctymsgpack.Marshal(v, cty.DynamicPseudoType)
	if err != nil {
		return 0, fmt.Errorf("failed to encode value for hashing: %w", err)
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64(), nil
}

// MarshalJSON encodes the value together with its type.
func MarshalJSON(v cty.Value) ([]byte, error) {
	return ctyjson.Marshal(v, cty.DynamicPseudoType)
}

// UnmarshalJSON decodes a value written by MarshalJSON.
func UnmarshalJSON(b []byte) (cty.Value, error) {
	return ctyjson.Unmarshal(b, cty.DynamicPseudoType)
}

// Keys returns the attribute names of an object or map value in sorted order.
func Keys(v cty.Value) []string {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil
	}
	var keys []string
	for k := range v.AsValueMap() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders a value compactly for diagnostics, e.g. {axis=1, dims={2, 3}}.
func Format(v cty.Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v cty.Value) {
	switch {
	case v.IsNull():
		sb.WriteString("null")
		return
	case !v.IsKnown():
		sb.WriteString("?")
		return
	}

	ty := v.Type()
	switch {
	case ty == cty.Bool:
		fmt.Fprint(sb, v.True())
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			fmt.Fprint(sb, i)
		} else {
			f, _ := bf.Float64()
			fmt.Fprint(sb, f)
		}
	case ty == cty.String:
		sb.WriteString(v.AsString())
	case ty.IsObjectType() || ty.IsMapType():
		sb.WriteRune('{')
		m := v.AsValueMap()
		for i, k := range Keys(v) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteRune('=')
			format(sb, m[k])
		}
		sb.WriteRune('}')
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		sb.WriteRune('{')
		i := 0
		for it := v.ElementIterator(); it.Next(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			_, ev := it.Element()
			format(sb, ev)
		}
		sb.WriteRune('}')
	default:
		sb.WriteString(v.GoString())
	}
}
