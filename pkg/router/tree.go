package router

import (
	"strings"

	"github.com/vango-dev/eventroutes/pkg/routepath"
)

// routeNode is a node in the segment tree.
//
// Matching tries children in specificity order: static children first, then
// the parameter child, then the catch-all child, backtracking when a branch
// dead-ends. This makes "/events/add" win over "/events/:id" no matter in
// which order the routes were declared.
type routeNode struct {
	// segment is the literal this node matches (static nodes only)
	segment string

	// route is the route terminating at this node, if any
	route *entry

	// children are static segment children
	children []*routeNode

	// paramChild matches any single segment (:id)
	paramChild *routeNode

	// catchAllChild matches the remaining segments (*rest)
	catchAllChild *routeNode
}

func newRouteNode(segment string) *routeNode {
	return &routeNode{segment: segment}
}

// findChild finds a static child with an exact segment match.
func (n *routeNode) findChild(segment string) *routeNode {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

// addChild adds or retrieves a static child for the given segment.
func (n *routeNode) addChild(segment string) *routeNode {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := newRouteNode(segment)
	n.children = append(n.children, child)
	return child
}

// insert walks or creates the nodes for a pattern and returns the terminal.
// Parameter names live on the route entry, not the node, so "/events/:id"
// and "/events/:slug/edit" share the same parameter node.
func (n *routeNode) insert(p routepath.Pattern) *routeNode {
	current := n
	for _, seg := range p.Segments() {
		switch seg.Kind {
		case routepath.CatchAll:
			if current.catchAllChild == nil {
				current.catchAllChild = newRouteNode("")
			}
			current = current.catchAllChild
		case routepath.Param:
			if current.paramChild == nil {
				current.paramChild = newRouteNode("")
			}
			current = current.paramChild
		default:
			current = current.addChild(seg.Value)
		}
	}
	return current
}

// match finds the route matching segments. values collects the raw text of
// every variable segment in order; the entry maps them to names.
func (n *routeNode) match(segments []string, values []string) (*entry, []string, bool) {
	if len(segments) == 0 {
		if n.route != nil && n.route.accepts(values) {
			return n.route, values, true
		}
		return nil, nil, false
	}

	segment := segments[0]
	remaining := segments[1:]

	if child := n.findChild(segment); child != nil {
		if e, vals, ok := child.match(remaining, values); ok {
			return e, vals, true
		}
	}

	if n.paramChild != nil {
		// Full slice expression forces a copy so sibling branches never share
		// a backing array.
		next := append(values[:len(values):len(values)], segment)
		if e, vals, ok := n.paramChild.match(remaining, next); ok {
			return e, vals, true
		}
	}

	if n.catchAllChild != nil && n.catchAllChild.route != nil {
		next := append(values[:len(values):len(values)], strings.Join(segments, "/"))
		if n.catchAllChild.route.accepts(next) {
			return n.catchAllChild.route, next, true
		}
	}

	return nil, nil, false
}
