package api

import (
	"fmt"
	"net/url"
	"strings"
)

// segment is one path component of a compiled pattern: either a literal
// that must match exactly, or a named parameter that captures one token.
type segment struct {
	literal string
	param   string
}

func (s segment) isParam() bool { return s.param != "" }

// Pattern is the compiled form of a route path. It distinguishes literal
// segments from named parameter segments and is immutable after Compile.
type Pattern struct {
	raw      string
	segments []segment
}

// Compile parses a route path into a Pattern. Parameter segments may be
// written as "{name}" or ":name"; everything else is a literal, stored
// URL-decoded. An empty segment, an undecodable segment, an unnamed
// parameter, or a duplicate parameter name is an error.
func Compile(path string) (*Pattern, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("%w: %q must begin with '/'", ErrInvalidPattern, path)
	}

	p := &Pattern{raw: path}

	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return p, nil // the root pattern "/"
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(trimmed, "/") {
		if part == "" {
			return nil, fmt.Errorf("%w: %q contains an empty segment", ErrInvalidPattern, path)
		}

		name, ok := paramName(part)
		if !ok {
			// Literals are stored decoded so that a percent-encoded pattern
			// segment matches the decoded request token.
			decoded, err := url.PathUnescape(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %q contains an undecodable segment %q", ErrInvalidPattern, path, part)
			}
			p.segments = append(p.segments, segment{literal: decoded})
			continue
		}

		if name == "" {
			return nil, fmt.Errorf("%w: %q contains an unnamed parameter", ErrInvalidPattern, path)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q declares parameter %q twice", ErrInvalidPattern, path, name)
		}
		seen[name] = true
		p.segments = append(p.segments, segment{param: name})
	}

	return p, nil
}

// MustCompile is Compile that panics on error, for static route tables.
func MustCompile(path string) *Pattern {
	p, err := Compile(path)
	if err != nil {
		panic(err)
	}
	return p
}

// paramName reports whether a path segment declares a parameter and, if so,
// its name. "{id}" and ":id" are equivalent.
func paramName(part string) (string, bool) {
	if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
		return part[1 : len(part)-1], true
	}
	if strings.HasPrefix(part, ":") {
		return part[1:], true
	}
	return "", false
}

// Match tests a request path against the pattern. Matching is
// segment-count-exact: no prefix or trailing-wildcard matches. Each token is
// URL-decoded before comparison; literals compare case-sensitively. On a
// match it returns the decoded values captured by parameter segments.
func (p *Pattern) Match(requestPath string) (map[string]string, bool) {
	tokens, ok := splitPath(requestPath)
	if !ok || len(tokens) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range p.segments {
		if seg.isParam() {
			if params == nil {
				params = make(map[string]string, len(p.segments))
			}
			params[seg.param] = tokens[i]
			continue
		}
		if seg.literal != tokens[i] {
			return nil, false
		}
	}

	return params, true
}

// splitPath splits a request path into URL-decoded tokens. A token that
// fails to decode, or an empty token, rejects the whole path.
func splitPath(path string) ([]string, bool) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, true
	}

	parts := strings.Split(trimmed, "/")
	tokens := make([]string, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, false
		}
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return nil, false
		}
		tokens[i] = decoded
	}
	return tokens, true
}

// ParamNames returns the parameter names in declaration order.
func (p *Pattern) ParamNames() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.isParam() {
			names = append(names, seg.param)
		}
	}
	return names
}

// String returns the pattern as it was written.
func (p *Pattern) String() string { return p.raw }

// OpenAPIPath renders the pattern in the brace notation OpenAPI expects,
// regardless of which parameter syntax declared it.
func (p *Pattern) OpenAPIPath() string {
	if len(p.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		if seg.isParam() {
			b.WriteByte('{')
			b.WriteString(seg.param)
			b.WriteByte('}')
			continue
		}
		b.WriteString(seg.literal)
	}
	return b.String()
}
