package router

import (
	"reflect"
	"testing"

	"github.com/vango-dev/eventroutes/pkg/routepath"
)

func buildTree(t *testing.T, patterns ...string) *routeNode {
	t.Helper()
	root := newRouteNode("")
	for _, raw := range patterns {
		p := routepath.MustParsePattern(raw)
		e := &entry{def: RouteDef{Pattern: raw, Name: raw, View: "V"}, pattern: p}
		for _, seg := range p.Segments() {
			if seg.Kind != routepath.Static {
				e.vars = append(e.vars, seg)
			}
		}
		root.insert(p).route = e
	}
	return root
}

func TestTreeInsertSharesParamNode(t *testing.T) {
	root := buildTree(t, "/events/:id", "/events/:slug/edit")

	events := root.findChild("events")
	if events == nil {
		t.Fatal("missing events node")
	}
	if events.paramChild == nil {
		t.Fatal("missing param child")
	}
	if events.paramChild.route == nil {
		t.Error("param node should terminate /events/:id")
	}
	if events.paramChild.findChild("edit") == nil {
		t.Error("edit node should hang off the shared param node")
	}
}

func TestTreeAddChildReuses(t *testing.T) {
	n := newRouteNode("")
	a := n.addChild("events")
	b := n.addChild("events")
	if a != b {
		t.Error("addChild should return the existing child")
	}
	if len(n.children) != 1 {
		t.Errorf("children = %d, want 1", len(n.children))
	}
}

func TestTreeMatch(t *testing.T) {
	root := buildTree(t,
		"/",
		"/events",
		"/events/:id",
		"/events/add",
		"/events/:id/edit",
		"/docs/*path",
	)

	tests := []struct {
		path       string
		wantRoute  string
		wantValues []string
		wantOK     bool
	}{
		{path: "/", wantRoute: "/", wantOK: true},
		{path: "/events", wantRoute: "/events", wantOK: true},
		{path: "/events/add", wantRoute: "/events/add", wantOK: true},
		{path: "/events/9", wantRoute: "/events/:id", wantValues: []string{"9"}, wantOK: true},
		{path: "/events/9/edit", wantRoute: "/events/:id/edit", wantValues: []string{"9"}, wantOK: true},
		// backtracks out of the static "add" branch
		{path: "/events/add/edit", wantRoute: "/events/:id/edit", wantValues: []string{"add"}, wantOK: true},
		{path: "/docs/a/b", wantRoute: "/docs/*path", wantValues: []string{"a/b"}, wantOK: true},
		{path: "/docs", wantOK: false},
		{path: "/events/9/other", wantOK: false},
		{path: "/missing", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			e, values, ok := root.match(routepath.Split(tc.path), nil)
			if ok != tc.wantOK {
				t.Fatalf("match ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if e.def.Name != tc.wantRoute {
				t.Errorf("route = %q, want %q", e.def.Name, tc.wantRoute)
			}
			if len(values) != len(tc.wantValues) || (len(values) > 0 && !reflect.DeepEqual(values, tc.wantValues)) {
				t.Errorf("values = %v, want %v", values, tc.wantValues)
			}
		})
	}
}

func TestTreeMatchDoesNotShareValues(t *testing.T) {
	root := buildTree(t, "/a/:x/:y/one", "/a/:x/b/two")

	e, values, ok := root.match(routepath.Split("/a/1/b/two"), make([]string, 0, 8))
	if !ok {
		t.Fatal("expected match")
	}
	if e.def.Name != "/a/:x/b/two" {
		t.Errorf("route = %q", e.def.Name)
	}
	if !reflect.DeepEqual(values, []string{"1"}) {
		t.Errorf("values = %v, want [1]", values)
	}
}
