package providers

import (
	"fmt"
	"sort"
)

// Factory constructs a provider adapter. Adapters are cheap value objects
// over shared collaborators, so the registry builds a fresh one per Create.
type Factory func() Provider

// Registry maps provider names to adapter factories. It is the single
// extension point for adding a provider: one factory registration, no
// changes to the lifecycle engine. Registration happens at process start;
// afterwards the registry is read-only and safe for concurrent use.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a provider factory under the given name
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Create builds an adapter for the named provider or fails with
// ErrUnsupportedProvider
func (r *Registry) Create(name string) (Provider, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
	return factory(), nil
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
