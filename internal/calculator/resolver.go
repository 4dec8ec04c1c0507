package calculator

import (
	"fmt"
	"sync"
)

// Resolved is a cached calculator instance together with its calling shape.
type Resolved struct {
	Ref      string
	Shape    Shape
	Instance any
}

// Resolver instantiates calculators by ref and caches them for its lifetime.
// A new Resolver is created on every registry reload.
type Resolver struct {
	factories *Factories

	mu    sync.RWMutex
	cache map[string]*Resolved
}

// NewResolver creates a resolver backed by factories.
func NewResolver(factories *Factories) *Resolver {
	return &Resolver{
		factories: factories,
		cache:     make(map[string]*Resolved),
	}
}

// Resolve returns the instance for ref, constructing it on first use.
// Failures are not cached and name both the tool and the ref.
func (r *Resolver) Resolve(toolID, ref string) (*Resolved, error) {
	r.mu.RLock()
	res, ok := r.cache[ref]
	r.mu.RUnlock()
	if ok {
		return res, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another request may have constructed it while we waited for the lock.
	if res, ok := r.cache[ref]; ok {
		return res, nil
	}

	factory, ok := r.factories.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("tool %q: unknown calculator ref %q", toolID, ref)
	}

	instance, err := factory()
	if err != nil {
		return nil, fmt.Errorf("tool %q: failed to construct calculator %q: %w", toolID, ref, err)
	}

	shape := ShapeOf(instance)
	if shape == ShapeUnknown {
		return nil, fmt.Errorf("tool %q: calculator %q (%T) implements neither the simple nor the scenario contract", toolID, ref, instance)
	}

	res = &Resolved{Ref: ref, Shape: shape, Instance: instance}
	r.cache[ref] = res
	return res, nil
}

// Len returns the number of cached instances.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
