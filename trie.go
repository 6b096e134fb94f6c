package api

import (
	"fmt"
	"slices"
)

// trieNode indexes routes by path segment. Literal children are keyed by
// segment text; at most one parameter child exists per node, so a single
// wildcard per depth. The trie is built during registration and read-only
// during dispatch.
type trieNode struct {
	literals  map[string]*trieNode
	param     *trieNode
	paramName string
	methods   map[string]*Route
}

func newTrieNode() *trieNode {
	return &trieNode{}
}

// insert walks/creates nodes for each pattern segment and records the route
// in the terminal node's method table. Duplicate (method, path shape) or a
// conflicting parameter name at the same depth is a registration error.
func (n *trieNode) insert(rt *Route) error {
	cur := n
	for _, seg := range rt.pattern.segments {
		if seg.isParam() {
			if cur.param == nil {
				cur.param = newTrieNode()
				cur.paramName = seg.param
			} else if cur.paramName != seg.param {
				return fmt.Errorf("%w: parameter %q conflicts with %q at the same depth (%s %s)",
					ErrDuplicateRoute, seg.param, cur.paramName, rt.method, rt.path)
			}
			cur = cur.param
			continue
		}

		if cur.literals == nil {
			cur.literals = make(map[string]*trieNode)
		}
		child, ok := cur.literals[seg.literal]
		if !ok {
			child = newTrieNode()
			cur.literals[seg.literal] = child
		}
		cur = child
	}

	if _, exists := cur.methods[rt.method]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, rt.method, rt.path)
	}
	if cur.methods == nil {
		cur.methods = make(map[string]*Route)
	}
	cur.methods[rt.method] = rt
	return nil
}

// resolveOutcome distinguishes the three dispatch results.
type resolveOutcome int

const (
	resolveMatched resolveOutcome = iota
	resolveNotFound
	resolveMethodNotAllowed
)

// resolve walks the trie for the given method and path. At every depth a
// literal child whose name equals the segment wins over the parameter
// child; only when no literal matches does the lookup fall through to the
// parameter branch. No node for a segment means NotFound. A terminal node
// without the method means MethodNotAllowed.
func (n *trieNode) resolve(method, path string) (*Route, map[string]string, resolveOutcome) {
	tokens, ok := splitPath(path)
	if !ok {
		return nil, nil, resolveNotFound
	}

	cur := n
	var params map[string]string
	for _, token := range tokens {
		if child, ok := cur.literals[token]; ok {
			cur = child
			continue
		}
		if cur.param != nil {
			if params == nil {
				params = make(map[string]string)
			}
			params[cur.paramName] = token
			cur = cur.param
			continue
		}
		return nil, nil, resolveNotFound
	}

	if len(cur.methods) == 0 {
		// An intermediate node with no routes of its own.
		return nil, nil, resolveNotFound
	}

	rt, ok := cur.methods[method]
	if !ok {
		return nil, nil, resolveMethodNotAllowed
	}
	return rt, params, resolveMatched
}

// allowedMethods returns the methods registered on the terminal node for
// path, for the Allow header on 405 responses.
func (n *trieNode) allowedMethods(path string) []string {
	tokens, ok := splitPath(path)
	if !ok {
		return nil
	}

	cur := n
	for _, token := range tokens {
		if child, ok := cur.literals[token]; ok {
			cur = child
			continue
		}
		if cur.param != nil {
			cur = cur.param
			continue
		}
		return nil
	}

	methods := make([]string, 0, len(cur.methods))
	for m := range cur.methods {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}
