package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vango-dev/eventroutes/pkg/routepath"
	"github.com/vango-dev/eventroutes/pkg/views"
)

// entry is a compiled route definition.
type entry struct {
	def     RouteDef
	pattern routepath.Pattern

	// vars are the pattern's variable segments, in order
	vars []routepath.Segment
}

// accepts reports whether the raw values satisfy the declared param types.
func (e *entry) accepts(values []string) bool {
	if len(values) != len(e.vars) {
		return false
	}
	for i, seg := range e.vars {
		v, err := url.PathUnescape(values[i])
		if err != nil {
			return false
		}
		if seg.Kind == routepath.Param && ValidateParam(v, seg.Type) != nil {
			return false
		}
	}
	return true
}

// bind decodes the raw values into a params map.
func (e *entry) bind(values []string) (map[string]string, error) {
	params := make(map[string]string, len(e.vars))
	for i, seg := range e.vars {
		v, err := routepath.DecodeSegment(values[i], seg.Kind == routepath.CatchAll)
		if err != nil {
			return nil, err
		}
		params[seg.Name] = v
	}
	return params, nil
}

// Table is an immutable route table. It is built once with NewTable and is
// safe for concurrent use by any number of navigators.
type Table struct {
	entries []*entry
	byName  map[string]*entry
	root    *routeNode
	base    string
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithBase mounts the table under a base path (e.g. "/app"). Paths handled
// by Resolve, URL and the Navigator are relative to the base; ResolveLocation
// strips it from browser locations and Href adds it back.
func WithBase(base string) TableOption {
	return func(t *Table) {
		t.base = routepath.NormalizeBase(base)
	}
}

// NewTable compiles route definitions into a table.
//
// Definitions are kept in declaration order, but matching does not depend on
// it: at every segment a static segment outranks a parameter, which outranks
// a catch-all. Definitions that would make matching ambiguous are rejected:
// duplicate names and patterns with the same shape ("/events/:id" and
// "/events/:slug").
func NewTable(defs []RouteDef, opts ...TableOption) (*Table, error) {
	t := &Table{
		byName: make(map[string]*entry, len(defs)),
		root:   newRouteNode(""),
		base:   "/",
	}
	for _, opt := range opts {
		opt(t)
	}

	shapes := make(map[string]string, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: pattern %q has no name", ErrInvalidRoute, def.Pattern)
		}
		if def.View == "" {
			return nil, fmt.Errorf("%w: route %q has no view", ErrInvalidRoute, def.Name)
		}
		if _, exists := t.byName[def.Name]; exists {
			return nil, fmt.Errorf("%w: name %q is declared twice", ErrDuplicateRoute, def.Name)
		}

		p, err := routepath.ParsePattern(def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: route %q: %w", ErrInvalidRoute, def.Name, err)
		}
		for _, seg := range p.Segments() {
			if seg.Kind == routepath.Param && !KnownParamType(seg.Type) {
				return nil, fmt.Errorf("%w: route %q: unknown parameter type %q", ErrInvalidRoute, def.Name, seg.Type)
			}
		}
		if other, exists := shapes[p.Shape()]; exists {
			return nil, fmt.Errorf("%w: routes %q and %q match the same paths (%s)", ErrDuplicateRoute, other, def.Name, p.Shape())
		}
		shapes[p.Shape()] = def.Name

		e := &entry{def: def, pattern: p}
		e.def.Pattern = p.String()
		for _, seg := range p.Segments() {
			if seg.Kind != routepath.Static {
				e.vars = append(e.vars, seg)
			}
		}

		t.root.insert(p).route = e
		t.entries = append(t.entries, e)
		t.byName[def.Name] = e
	}

	return t, nil
}

// MustTable is like NewTable but panics on error. It is meant for tables
// declared in code at program start.
func MustTable(defs []RouteDef, opts ...TableOption) *Table {
	t, err := NewTable(defs, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Base returns the normalized base path.
func (t *Table) Base() string { return t.base }

// Routes returns a copy of the definitions in declaration order.
func (t *Table) Routes() []RouteDef {
	defs := make([]RouteDef, len(t.entries))
	for i, e := range t.entries {
		defs[i] = e.def
	}
	return defs
}

// Views returns the view identifier of every route, in declaration order.
func (t *Table) Views() []views.ID {
	ids := make([]views.ID, len(t.entries))
	for i, e := range t.entries {
		ids[i] = e.def.View
	}
	return ids
}

// Lookup returns the definition with the given name.
func (t *Table) Lookup(name string) (RouteDef, bool) {
	e, ok := t.byName[name]
	if !ok {
		return RouteDef{}, false
	}
	return e.def, true
}

// Resolve matches path against the table.
//
// The path is canonicalized first, so "/events/" and "/events" resolve the
// same way. A query string is parsed into Resolved.Query. A path that matches
// no route yields a *NotFoundError; a malformed path yields one of the
// canonicalization errors.
func (t *Table) Resolve(path string) (*Resolved, error) {
	res, err := routepath.CanonicalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}

	p := res.Path
	e, values, ok := t.root.match(routepath.Split(p), nil)
	if !ok {
		return nil, &NotFoundError{Path: p}
	}

	params, err := e.bind(values)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}

	var query url.Values
	if res.Query != "" {
		query, err = url.ParseQuery(res.Query)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w: %v", path, ErrInvalidPath, err)
		}
	}

	def := e.def
	return &Resolved{
		Name:   def.Name,
		Path:   p,
		Params: params,
		Query:  query,
		View:   def.View,
		Route:  &def,
	}, nil
}

// ResolveLocation resolves a browser location, which includes the base path.
// Locations outside the base yield a *NotFoundError.
func (t *Table) ResolveLocation(location string) (*Resolved, error) {
	res, err := routepath.CanonicalizePath(location)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", location, err)
	}
	p, ok := routepath.StripBase(t.base, res.Path)
	if !ok {
		return nil, &NotFoundError{Path: res.Path}
	}
	if res.Query != "" {
		p += "?" + res.Query
	}
	return t.Resolve(p)
}

// URL builds the path of the named route from params. Param values are
// checked against their declared types and path-escaped; extra params are
// ignored. The result does not include the base path.
//
// The built path always resolves back to the named route: a value that
// cannot be a single segment ("a/b", "..") or that a more specific sibling
// would capture ("add" for "/events/:id" next to "/events/add") yields an
// *InvalidParamError.
func (t *Table) URL(name string, params map[string]string) (string, error) {
	e, ok := t.byName[name]
	if !ok {
		return "", &UnknownRouteError{Name: name}
	}

	for _, seg := range e.vars {
		v := params[seg.Name]
		if v == "" || seg.Kind != routepath.Param {
			continue
		}
		if strings.Contains(v, "/") || v == "." || v == ".." {
			return "", &InvalidParamError{Route: name, Param: seg.Name, Value: v, Type: "path segment"}
		}
		if err := ValidateParam(v, seg.Type); err != nil {
			return "", &InvalidParamError{Route: name, Param: seg.Name, Value: v, Type: seg.Type}
		}
	}

	path, err := e.pattern.Expand(params)
	if err != nil {
		var mp *routepath.MissingParamError
		if errors.As(err, &mp) {
			return "", &MissingParamError{Route: name, Param: mp.Param}
		}
		return "", err
	}

	if other, _, ok := t.root.match(routepath.Split(path), nil); ok && other != e {
		return "", e.shadowed(other, params)
	}
	return path, nil
}

// shadowed reports the param whose value makes other match instead of e:
// the first variable segment of e that sits where other has a literal.
func (e *entry) shadowed(other *entry, params map[string]string) error {
	segs := e.pattern.Segments()
	otherSegs := other.pattern.Segments()
	var culprit routepath.Segment
	for i, seg := range segs {
		if seg.Kind == routepath.Static {
			continue
		}
		if culprit.Name == "" {
			culprit = seg
		}
		if i < len(otherSegs) && otherSegs[i].Kind == routepath.Static {
			culprit = seg
			break
		}
	}
	return &InvalidParamError{
		Route: e.def.Name,
		Param: culprit.Name,
		Value: params[culprit.Name],
		Type:  fmt.Sprintf("value (it selects route %q)", other.def.Name),
	}
}

// Href is like URL but includes the base path, for use in links.
func (t *Table) Href(name string, params map[string]string) (string, error) {
	path, err := t.URL(name, params)
	if err != nil {
		return "", err
	}
	return routepath.JoinBase(t.base, path), nil
}

// Location returns the browser location of a resolved route: base, path and
// query.
func (t *Table) Location(r *Resolved) string {
	return routepath.JoinBase(t.base, r.FullPath())
}
