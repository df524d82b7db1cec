// Package registry implements the component lookup used by the form
// pipeline. Handlers are registered for a component name and a tuple of
// discriminator specs; lookups pass the runtime values (context, request,
// form, field, widget, ...) and receive the most specific handler.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get style lookups that match nothing.
var ErrNotFound = errors.New("registry: component not found")

type entry struct {
	specs    []Spec
	handler  any
	priority int
	order    int
}

// Registry maps (component, discriminators) to handlers. Resolution order
// is fixed: discriminator scores compared left to right, then priority,
// then the most recent registration. It is safe for concurrent use and is
// meant to be built once per process and passed to forms explicitly.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]entry
	seq     int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string][]entry)}
}

// RegisterOption customises a registration.
type RegisterOption func(*entry)

// WithPriority raises a handler over others whose discriminators score the
// same.
func WithPriority(priority int) RegisterOption {
	return func(e *entry) {
		e.priority = priority
	}
}

// Register adds handler for component. Missing trailing specs match
// anything.
func (r *Registry) Register(component string, specs []Spec, handler any, opts ...RegisterOption) error {
	if r == nil {
		return errors.New("registry: nil registry")
	}
	component = strings.TrimSpace(component)
	if component == "" {
		return errors.New("registry: component name is required")
	}
	if handler == nil {
		return fmt.Errorf("registry: handler for %q is nil", component)
	}
	for idx, spec := range specs {
		if spec == nil {
			return fmt.Errorf("registry: %q spec %d is nil", component, idx)
		}
	}
	e := entry{specs: append([]Spec(nil), specs...), handler: handler}
	for _, opt := range opts {
		if opt != nil {
			opt(&e)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string][]entry)
	}
	e.order = r.seq
	r.seq++
	r.entries[component] = append(r.entries[component], e)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(component string, specs []Spec, handler any, opts ...RegisterOption) {
	if err := r.Register(component, specs, handler, opts...); err != nil {
		panic(err)
	}
}

// Lookup returns the best handler for component given objs. It never fails
// on a miss.
func (r *Registry) Lookup(component string, objs ...any) (any, bool) {
	matches := r.match(component, objs)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0].handler, true
}

// Get is like Lookup but reports a miss as an error wrapping ErrNotFound.
func (r *Registry) Get(component string, objs ...any) (any, error) {
	handler, ok := r.Lookup(component, objs...)
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrNotFound, component, describe(objs))
	}
	return handler, nil
}

// All returns every matching handler, best match first.
func (r *Registry) All(component string, objs ...any) []any {
	matches := r.match(component, objs)
	out := make([]any, len(matches))
	for i, m := range matches {
		out[i] = m.handler
	}
	return out
}

// Has reports whether any handler is registered for component.
func (r *Registry) Has(component string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[component]) > 0
}

type scored struct {
	entry
	scores []int
}

func (r *Registry) match(component string, objs []any) []scored {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	candidates := append([]entry(nil), r.entries[component]...)
	r.mu.RUnlock()

	var matches []scored
	for _, e := range candidates {
		if len(e.specs) > len(objs) {
			continue
		}
		scores := make([]int, len(objs))
		ok := true
		for idx := range objs {
			if idx >= len(e.specs) {
				scores[idx] = scoreAny
				continue
			}
			score, matched := e.specs[idx].Score(objs[idx])
			if !matched {
				ok = false
				break
			}
			scores[idx] = score
		}
		if ok {
			matches = append(matches, scored{entry: e, scores: scores})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		for idx := range a.scores {
			if a.scores[idx] != b.scores[idx] {
				return a.scores[idx] > b.scores[idx]
			}
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.order > b.order
	})
	return matches
}

// Query is the typed form of Lookup. Handlers of another type are skipped.
func Query[H any](r *Registry, component string, objs ...any) (H, bool) {
	var zero H
	if r == nil {
		return zero, false
	}
	for _, handler := range r.All(component, objs...) {
		if typed, ok := handler.(H); ok {
			return typed, true
		}
	}
	return zero, false
}

// Resolve is the typed form of Get.
func Resolve[H any](r *Registry, component string, objs ...any) (H, error) {
	typed, ok := Query[H](r, component, objs...)
	if !ok {
		var zero H
		return zero, fmt.Errorf("%w: %s for %s", ErrNotFound, component, describe(objs))
	}
	return typed, nil
}

func describe(objs []any) string {
	parts := make([]string, len(objs))
	for i, obj := range objs {
		if tagged, ok := obj.(Tagged); ok {
			if tags := tagged.Tags(); len(tags) > 0 {
				parts[i] = fmt.Sprintf("%T[%s]", obj, tags[0])
				continue
			}
		}
		parts[i] = fmt.Sprintf("%T", obj)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
