package dispatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Scope decides whether a filter applies to a request path.
// Scopes test the path as seen by handlers (base path stripped, leading slash kept),
// independently of route templates.
type Scope interface {
	Match(path string) bool
}

// ScopeFunc adapts a predicate to Scope.
type ScopeFunc func(path string) bool

// Match calls f(path).
func (f ScopeFunc) Match(path string) bool {
	return f(path)
}

type prefixScope string

func (p prefixScope) Match(path string) bool {
	return strings.HasPrefix(path, string(p))
}

// Prefix matches paths starting with p.
func Prefix(p string) Scope {
	if p == "" {
		panic(fmt.Errorf("%w: empty prefix", ErrInvalidScope))
	}
	return prefixScope(p)
}

type regexpScope struct {
	re *regexp.Regexp
}

func (s regexpScope) Match(path string) bool {
	return s.re.MatchString(path)
}

// Regexp matches paths against expr. It panics if expr does not compile.
// The path keeps its leading slash, so anchor with "^/admin/" rather than "^admin/".
func Regexp(expr string) Scope {
	re, err := regexp.Compile(expr)
	if err != nil {
		panic(fmt.Errorf("%w: %w", ErrInvalidScope, err))
	}
	return regexpScope{re: re}
}
