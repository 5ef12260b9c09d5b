package registry

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/graphc/internal/pass"
)

// schema returns the attribute object type of a pass and its current
// attribute values. Passes without cty-tagged fields have an empty object.
func schema(p pass.Pass) (cty.Type, cty.Value, error) {
	rt := reflect.TypeOf(p)
	if rt.Kind() != reflect.Struct {
		return cty.EmptyObject, cty.EmptyObjectVal, nil
	}
	tagged := false
	for i := range rt.NumField() {
		if _, ok := rt.Field(i).Tag.Lookup("cty"); ok {
			tagged = true
			break
		}
	}
	if !tagged {
		return cty.EmptyObject, cty.EmptyObjectVal, nil
	}

	ty, err := gocty.ImpliedType(p)
	if err != nil {
		return cty.NilType, cty.NilVal, fmt.Errorf("could not imply cty type from Go type %s: %w", rt, err)
	}
	v, err := gocty.ToCtyValue(p, ty)
	if err != nil {
		return cty.NilType, cty.NilVal, err
	}
	return ty, v, nil
}

// configure returns a copy of proto with attrs overlaid on its defaults.
func configure(proto pass.Pass, attrs map[string]cty.Value) (pass.Pass, error) {
	if len(attrs) == 0 {
		return proto, nil
	}
	ty, current, err := schema(proto)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := ty.AttributeTypes()
	merged := current.AsValueMap()
	if merged == nil {
		merged = make(map[string]cty.Value)
	}
	for _, k := range keys {
		fty, ok := fields[k]
		if !ok {
			return nil, fmt.Errorf("pass '%s' has no attribute '%s'", proto.Name(), k)
		}
		v, err := convert.Convert(attrs[k], fty)
		if err != nil {
			return nil, fmt.Errorf("pass '%s', attribute '%s': type mismatch: requires %s: %w",
				proto.Name(), k, fty.FriendlyName(), err)
		}
		merged[k] = v
	}

	target := reflect.New(reflect.TypeOf(proto))
	if err := gocty.FromCtyValue(cty.ObjectVal(merged), target.Interface()); err != nil {
		return nil, fmt.Errorf("pass '%s': %w", proto.Name(), err)
	}
	return target.Elem().Interface().(pass.Pass), nil
}
