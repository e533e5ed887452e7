package engine

import (
	"fmt"

	"github.com/branchrun/agentry/spec"
)

// Registry holds every Function Specification known to the runtime, keyed
// by name. Registration walks a root specification's Uses graph breadth
// first (spec.md §4.1) so that a specification and everything it declares
// as a tool end up registered together, and rejects a name collision
// between two distinct specifications.
type Registry struct {
	byName map[string]spec.Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]spec.Spec)}
}

// Register walks root and every specification reachable through Uses
// breadth first, adding each to the registry. Registering the same spec
// value twice (by pointer identity, reachable via more than one path) is
// fine; registering two distinct specs under the same name is rejected.
func (r *Registry) Register(root spec.Spec) error {
	queue := []spec.Spec{root}
	seen := make(map[spec.Spec]struct{})

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}

		if existing, ok := r.byName[s.Name()]; ok && existing != s {
			return fmt.Errorf("engine: specification name %q is already registered to a different specification", s.Name())
		}
		r.byName[s.Name()] = s

		queue = append(queue, s.Uses()...)
	}
	return nil
}

// Lookup returns the specification registered under name.
func (r *Registry) Lookup(name string) (spec.Spec, bool) {
	s, ok := r.byName[name]
	return s, ok
}
