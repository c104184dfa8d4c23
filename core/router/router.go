package router

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

// AnyMethod is the method marker for routes that match every HTTP method.
const AnyMethod = "*"

var knownMethods = map[string]struct{}{
	http.MethodConnect: {},
	http.MethodDelete:  {},
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
	http.MethodPatch:   {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodTrace:   {},
	AnyMethod:          {},
}

// Route is a registered (method, pattern, handler) triple.
type Route[H any] struct {
	Method  string
	Pattern *Pattern
	Handler H
	// Index is the registration position of the route in its table.
	Index int
}

// Table is an ordered collection of routes.
//
// Routes are registered during startup and the table is sealed before the
// first lookup. A sealed table is read-only and Resolve is safe for concurrent use.
type Table[H any] struct {
	exact    []*Route[H]
	wildcard []*Route[H]
	all      []*Route[H]
	sealed   atomic.Bool
}

// NewTable creates an empty route table.
func NewTable[H any]() *Table[H] {
	return &Table[H]{}
}

// Register compiles template and appends a route for method.
// Method "*" registers a wildcard route.
func (t *Table[H]) Register(method, template string, h H) (*Route[H], error) {
	if t.sealed.Load() {
		return nil, fmt.Errorf("%w: cannot register %s %s", ErrSealed, method, template)
	}

	method = strings.ToUpper(method)
	if _, ok := knownMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	p, err := Compile(template)
	if err != nil {
		return nil, err
	}

	r := &Route[H]{
		Method:  method,
		Pattern: p,
		Handler: h,
		Index:   len(t.all),
	}
	t.all = append(t.all, r)
	if method == AnyMethod {
		t.wildcard = append(t.wildcard, r)
	} else {
		t.exact = append(t.exact, r)
	}

	return r, nil
}

// Seal freezes the table. Registration after Seal fails with ErrSealed.
func (t *Table[H]) Seal() {
	t.sealed.Store(true)
}

// Sealed reports whether the table is sealed.
func (t *Table[H]) Sealed() bool {
	return t.sealed.Load()
}

// Resolve finds the route for method and path and returns it with the raw
// captured values in declaration order.
//
// Exact-method routes are tried first in registration order, then a HEAD request
// falls back to GET routes, then wildcard routes are tried in registration order.
// The first structural match wins. Returns ErrNotFound when nothing matches.
func (t *Table[H]) Resolve(method, path string) (*Route[H], []string, error) {
	method = strings.ToUpper(method)

	if r, values, ok := match(t.exact, method, path); ok {
		return r, values, nil
	}
	if method == http.MethodHead {
		if r, values, ok := match(t.exact, http.MethodGet, path); ok {
			return r, values, nil
		}
	}
	if r, values, ok := match(t.wildcard, AnyMethod, path); ok {
		return r, values, nil
	}

	return nil, nil, ErrNotFound
}

// Routes returns all registered routes in registration order.
func (t *Table[H]) Routes() []*Route[H] {
	out := make([]*Route[H], len(t.all))
	copy(out, t.all)
	return out
}

func match[H any](routes []*Route[H], method, path string) (*Route[H], []string, bool) {
	for _, r := range routes {
		if r.Method != method {
			continue
		}
		if values, ok := r.Pattern.Match(path); ok {
			return r, values, true
		}
	}
	return nil, nil, false
}
