package router

import (
	"net/url"

	"github.com/vango-dev/eventroutes/pkg/views"
)

// RouteDef is a static route definition: a URL pattern bound to a name and
// a view.
type RouteDef struct {
	// Pattern is the URL pattern (e.g. "/events/:id").
	Pattern string `json:"pattern" toml:"pattern"`

	// Name identifies the route. Names are unique within a Table.
	Name string `json:"name" toml:"name"`

	// View is the opaque identifier handed to the rendering layer.
	View views.ID `json:"view" toml:"view"`

	// Props passes the extracted params to the view as props.
	Props bool `json:"props,omitempty" toml:"props"`
}

// Resolved is the result of matching a concrete path against a Table.
type Resolved struct {
	// Name is the matched route name.
	Name string `json:"name"`

	// Path is the canonical path, without base and query.
	Path string `json:"path"`

	// Params are the decoded values of the route's variable segments.
	Params map[string]string `json:"params"`

	// Query holds the parsed query string, if any.
	Query url.Values `json:"query,omitempty"`

	// View is the target view identifier.
	View views.ID `json:"view"`

	// Route is the matched definition.
	Route *RouteDef `json:"-"`
}

// FullPath returns Path with the encoded query appended.
func (r *Resolved) FullPath() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Props returns a copy of the params when the route passes them to its view
// as props, and nil otherwise.
func (r *Resolved) Props() map[string]string {
	if r.Route == nil || !r.Route.Props {
		return nil
	}
	props := make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		props[k] = v
	}
	return props
}

// Bind decodes the params into a struct with `param` tags.
func (r *Resolved) Bind(target any) error {
	return NewParamParser().Parse(r.Params, target)
}

// Same reports whether r and other address the same location: same route,
// same params and same query.
func (r *Resolved) Same(other *Resolved) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Name == other.Name && r.FullPath() == other.FullPath()
}
