package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/pass"
)

// ErrUnknownPass marks a pipeline entry naming an unregistered pass.
var ErrUnknownPass = errors.New("unknown pass")

// Module is the interface that every set of passes must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the pass prototypes of a single application instance.
type Registry struct {
	mu     sync.RWMutex
	passes map[string]pass.Pass
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{passes: make(map[string]pass.Pass)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a pass prototype under its Name. It panics if the name is
// taken or the prototype's attribute fields cannot be expressed in cty.
func (r *Registry) Register(proto pass.Pass) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := proto.Name()
	if _, exists := r.passes[name]; exists {
		panic(fmt.Sprintf("pass with name '%s' already registered", name))
	}
	if _, _, err := schema(proto); err != nil {
		panic(fmt.Sprintf("pass '%s': %v", name, err))
	}
	slog.Debug("Registering pass.", "name", name)
	r.passes[name] = proto
}

// Lookup returns the prototype registered under name.
func (r *Registry) Lookup(name string) (pass.Pass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.passes[name]
	return p, ok
}

// Names returns the registered pass names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.passes))
	for name := range r.passes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Make builds the pass configured by cfg.
func (r *Registry) Make(cfg *config.Pass) (pass.Pass, error) {
	proto, ok := r.Lookup(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownPass, cfg.Name)
	}
	return configure(proto, cfg.Attributes)
}

// Pipeline builds every pass of cfg, in order.
func (r *Registry) Pipeline(cfg *config.Pipeline) (*pass.Pipeline, error) {
	pl := &pass.Pipeline{Name: cfg.Name}
	for i, pc := range cfg.Passes {
		p, err := r.Make(pc)
		if err != nil {
			return nil, fmt.Errorf("pipeline '%s', pass %d: %w", cfg.Name, i, err)
		}
		pl.Passes = append(pl.Passes, p)
	}
	return pl, nil
}
