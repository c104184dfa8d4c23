package dispatch

import (
	"fmt"
	"sort"
)

// Lookup returns the bound value of another parameter of the current dispatch.
// It returns nil when the matched route has no such parameter.
type Lookup func(name string) (any, error)

// BindFunc transforms a raw captured value. It may call lookup to compose
// values of other parameters of the same dispatch.
type BindFunc func(raw string, lookup Lookup) (any, error)

type binding struct {
	fn        BindFunc
	dependsOn []string
}

// checkCycles walks declared dependencies and reports the first cycle found.
func checkCycles(bindings map[string]*binding) error {
	const (
		unvisited = iota
		visiting
		visited
	)

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	state := make(map[string]int, len(bindings))
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w for name %s", ErrBindingCycle, name)
		case visited:
			return nil
		}

		b, ok := bindings[name]
		if !ok {
			return nil
		}

		state[name] = visiting
		for _, dep := range b.dependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = visited
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// resolver computes bound parameter values for one dispatch. Values are
// memoized; a name that is requested while it is being computed is a cycle.
type resolver struct {
	bindings map[string]*binding
	raw      map[string]string
	values   map[string]any
	done     map[string]bool
	visiting map[string]bool
}

func newResolver(bindings map[string]*binding, names, raw []string) *resolver {
	r := &resolver{
		bindings: bindings,
		raw:      make(map[string]string, len(names)),
		values:   make(map[string]any, len(names)),
		done:     make(map[string]bool, len(names)),
		visiting: make(map[string]bool),
	}
	for i, name := range names {
		r.raw[name] = raw[i]
	}
	return r
}

// resolve returns the bound value for name. The raw value is returned
// unchanged when no transform is registered.
func (r *resolver) resolve(name string) (any, error) {
	if r.done[name] {
		return r.values[name], nil
	}

	raw, ok := r.raw[name]
	if !ok {
		return nil, nil
	}

	b, ok := r.bindings[name]
	if !ok {
		r.values[name] = raw
		r.done[name] = true
		return raw, nil
	}

	if r.visiting[name] {
		return nil, fmt.Errorf("%w for name %s", ErrBindingCycle, name)
	}
	r.visiting[name] = true
	v, err := b.fn(raw, r.resolve)
	delete(r.visiting, name)
	if err != nil {
		return nil, err
	}

	r.values[name] = v
	r.done[name] = true
	return v, nil
}
