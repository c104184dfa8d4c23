package router

import (
	"fmt"
	"net/url"
	"strings"
)

// segment is a single compiled path segment: either a literal or a named capture.
type segment struct {
	value   string // literal text or capture name
	capture bool
}

// Pattern is a compiled route path template.
// It is immutable and safe for concurrent use.
type Pattern struct {
	template string
	segments []segment
	names    []string
}

// Compile turns a path template into a Pattern.
//
// Segments are separated by "/". A segment starting with ":" is a named capture
// that matches one non-empty path segment; every other segment matches literally.
// Leading and trailing slashes are ignored, so "/users/:id" and "users/:id/" are
// the same pattern and "/" matches the root path.
func Compile(template string) (*Pattern, error) {
	if template == "" {
		return nil, ErrEmptyPattern
	}

	p := &Pattern{template: template}
	trimmed := strings.Trim(template, "/")
	if trimmed == "" {
		return p, nil
	}

	seen := make(map[string]struct{})
	for _, part := range strings.Split(trimmed, "/") {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in '%s'", ErrInvalidPattern, template)
		}
		if part[0] != ':' {
			p.segments = append(p.segments, segment{value: part})
			continue
		}

		name := part[1:]
		if name == "" {
			return nil, fmt.Errorf("%w: unnamed capture in '%s'", ErrInvalidPattern, template)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: '%s' in '%s'", ErrDuplicateParam, name, template)
		}
		seen[name] = struct{}{}

		p.segments = append(p.segments, segment{value: name, capture: true})
		p.names = append(p.names, name)
	}

	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the template the pattern was compiled from.
func (p *Pattern) String() string {
	return p.template
}

// Names returns the capture names in declaration order.
func (p *Pattern) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Match reports whether path matches the pattern and returns the captured
// values aligned with Names. The path is expected in its escaped form and is
// split before unescaping, so an encoded "/" never splits a segment. Literals
// and captured values are compared and returned unescaped.
func (p *Pattern) Match(path string) ([]string, bool) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, len(p.segments) == 0
	}
	if len(p.segments) == 0 {
		return nil, false
	}

	// Counting first avoids allocating for paths with the wrong shape.
	if strings.Count(trimmed, "/")+1 != len(p.segments) {
		return nil, false
	}

	var values []string
	if len(p.names) > 0 {
		values = make([]string, 0, len(p.names))
	}

	rest := trimmed
	for i, seg := range p.segments {
		part := rest
		if i < len(p.segments)-1 {
			idx := strings.IndexByte(rest, '/')
			part, rest = rest[:idx], rest[idx+1:]
		}

		if !seg.capture {
			if part != seg.value && !literalMatch(part, seg.value) {
				return nil, false
			}
			continue
		}

		if part == "" {
			return nil, false
		}
		if unescaped, err := url.PathUnescape(part); err == nil {
			part = unescaped
		}
		values = append(values, part)
	}

	return values, true
}

// literalMatch compares an escaped path segment with a literal template segment.
func literalMatch(part, literal string) bool {
	if !strings.Contains(part, "%") {
		return false
	}
	unescaped, err := url.PathUnescape(part)
	return err == nil && unescaped == literal
}
