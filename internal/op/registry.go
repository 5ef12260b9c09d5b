package op

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/value"
)

// Registry maps operation names to prototypes. Make copies a prototype and
// applies attributes to it.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

// Register adds a prototype under its Name. It panics if the name is taken.
func (r *Registry) Register(proto Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := proto.Name()
	if _, exists := r.ops[name]; exists {
		panic(fmt.Sprintf("operation with name '%s' already registered", name))
	}
	slog.Debug("Registering operation.", "name", name)
	r.ops[name] = proto
}

// Lookup returns the prototype registered under name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.ops[name]
	return o, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Make constructs the operation registered under name with attrs applied
// over its defaults. attrs may be null.
func (r *Registry) Make(name string, attrs cty.Value) (Operation, error) {
	proto, ok := r.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOperation, "%q", name)
	}
	return withAttributes(proto, attrs)
}

// MakeGo is Make with attributes given as plain Go data.
func (r *Registry) MakeGo(name string, attrs map[string]any) (Operation, error) {
	if attrs == nil {
		return r.Make(name, cty.NullVal(cty.DynamicPseudoType))
	}
	v, err := value.FromGo(attrs)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedAttribute, "%s: %v", name, err)
	}
	return r.Make(name, v)
}

var defaultRegistry = newBuiltinRegistry()

// Default returns the process-wide registry holding the builtin operations
// and any custom operations added with Register.
func Default() *Registry { return defaultRegistry }

// Register adds a custom operation to the default registry.
func Register(proto Operation) { defaultRegistry.Register(proto) }

// Make constructs an operation from the default registry.
func Make(name string, attrs cty.Value) (Operation, error) {
	return defaultRegistry.Make(name, attrs)
}

// MakeGo constructs an operation from the default registry with Go attributes.
func MakeGo(name string, attrs map[string]any) (Operation, error) {
	return defaultRegistry.MakeGo(name, attrs)
}

// MustMake is MakeGo for names and attributes fixed at compile time. It panics
// on error.
func MustMake(name string, attrs map[string]any) Operation {
	o, err := MakeGo(name, attrs)
	if err != nil {
		panic(err)
	}
	return o
}

func newBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, u := range unaryOps {
		r.Register(u)
	}
	for _, b := range binaryOps {
		r.Register(b)
	}
	for _, o := range []Operation{
		Clip{},
		Convert{TargetType: shape.Float},
		Broadcast{},
		Multibroadcast{},
		Contiguous{},
		Transpose{},
		Reshape{},
		Identity{},
		Allocate{Type: shape.Float},
		Literal{Type: shape.Float},
		Param{Type: shape.Float},
		Return{},
		GetTupleElem{},
		If{},
		Loop{MaxIterations: 10},
		QuantizeLinear{},
		DequantizeLinear{},
	} {
		r.Register(o)
	}
	return r
}
