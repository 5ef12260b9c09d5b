package op

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/graphc/internal/value"
)

// schema returns the attribute object type declared by the cty-tagged fields
// of an operation. Operations without tagged fields have no attributes.
func schema(o Operation) (cty.Type, bool) {
	rt := reflect.TypeOf(o)
	if rt.Kind() != reflect.Struct {
		return cty.NilType, false
	}
	tagged := false
	for i := range rt.NumField() {
		if _, ok := rt.Field(i).Tag.Lookup("cty"); ok {
			tagged = true
			break
		}
	}
	if !tagged {
		return cty.NilType, false
	}
	ty, err := gocty.ImpliedType(o)
	if err != nil {
		panic(fmt.Sprintf("operation '%s' has an invalid attribute schema: %v", o.Name(), err))
	}
	return ty, true
}

// Attributes returns the attribute object of an operation. Operations with no
// attributes return an empty object.
func Attributes(o Operation) cty.Value {
	ty, ok := schema(o)
	if !ok {
		return cty.EmptyObjectVal
	}
	v, err := gocty.ToCtyValue(o, ty)
	if err != nil {
		panic(fmt.Sprintf("operation '%s' attributes do not match schema: %v", o.Name(), err))
	}
	return v
}

// withAttributes returns a copy of proto with attrs overlaid on its current
// attribute values. attrs must be an object or map value, or null.
func withAttributes(proto Operation, attrs cty.Value) (Operation, error) {
	name := proto.Name()
	if attrs.IsNull() {
		return proto, nil
	}
	aty := attrs.Type()
	if !aty.IsObjectType() && !aty.IsMapType() {
		return nil, attributeErrorf(name, "attributes must be an object, got %s", aty.FriendlyName())
	}
	if !attrs.IsWhollyKnown() {
		return nil, attributeErrorf(name, "attributes must be known values")
	}

	ty, ok := schema(proto)
	if !ok {
		if attrs.LengthInt() > 0 {
			return nil, attributeErrorf(name, "operation takes no attributes, got %v", value.Keys(attrs))
		}
		return proto, nil
	}

	merged := Attributes(proto).AsValueMap()
	fields := ty.AttributeTypes()
	given := attrs.AsValueMap()
	for _, k := range value.Keys(attrs) {
		fty, ok := fields[k]
		if !ok {
			return nil, attributeErrorf(name, "unknown attribute %q", k)
		}
		v, err := convert.Convert(given[k], fty)
		if err != nil {
			return nil, attributeErrorf(name, "attribute %q: %v", k, err)
		}
		merged[k] = v
	}

	target := reflect.New(reflect.TypeOf(proto))
	if err := gocty.FromCtyValue(cty.ObjectVal(merged), target.Interface()); err != nil {
		return nil, attributeErrorf(name, "%v", err)
	}
	return target.Elem().Interface().(Operation), nil
}

// Equal reports whether two operations have the same name and attributes.
func Equal(a, b Operation) bool {
	return a.Name() == b.Name() && value.Equal(Attributes(a), Attributes(b))
}

// Hash digests the name and attributes of an operation.
func Hash(o Operation) uint64 {
	h, err := value.Hash(cty.TupleVal([]cty.Value{cty.StringVal(o.Name()), Attributes(o)}))
	if err != nil {
		panic(fmt.Sprintf("operation '%s' attributes cannot be hashed: %v", o.Name(), err))
	}
	return h
}

// String renders an operation with its attributes, e.g. transpose{permutation={1, 0}}.
func String(o Operation) string {
	attrs := Attributes(o)
	if attrs.LengthInt() == 0 {
		return o.Name()
	}
	return o.Name() + value.Format(attrs)
}
