package calculator

import (
	"fmt"
	"sort"
	"strings"
)

// Factory constructs a calculator instance. The returned value must satisfy
// Simple or Scenario.
type Factory func() (any, error)

// Factories maps calculatorRef strings to constructors. It is populated once at
// startup by each calculator package and read-only afterwards.
type Factories struct {
	factories map[string]Factory
}

// NewFactories returns an empty factory table.
func NewFactories() *Factories {
	return &Factories{factories: make(map[string]Factory)}
}

// Register binds ref to f. Empty refs, nil factories and duplicates are rejected.
func (f *Factories) Register(ref string, factory Factory) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("calculator ref is required")
	}
	if factory == nil {
		return fmt.Errorf("calculator %q: factory must not be nil", ref)
	}
	if _, exists := f.factories[ref]; exists {
		return fmt.Errorf("calculator %q is already registered", ref)
	}
	f.factories[ref] = factory
	return nil
}

// MustRegister is Register for static registration tables; it panics on error.
func (f *Factories) MustRegister(ref string, factory Factory) {
	if err := f.Register(ref, factory); err != nil {
		panic(err)
	}
}

// Has reports whether ref is registered.
func (f *Factories) Has(ref string) bool {
	_, ok := f.factories[ref]
	return ok
}

// Lookup returns the factory bound to ref.
func (f *Factories) Lookup(ref string) (Factory, bool) {
	factory, ok := f.factories[ref]
	return factory, ok
}

// Refs returns all registered refs, sorted.
func (f *Factories) Refs() []string {
	refs := make([]string, 0, len(f.factories))
	for ref := range f.factories {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
