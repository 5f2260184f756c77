// Package views maps opaque view identifiers to the views the rendering
// layer mounts.
//
// The router never inspects a view. It only hands the identifier of the
// matched route to whoever renders, and that party looks the view up here.
package views

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ID identifies a view. The router treats it as opaque.
type ID string

// View describes a displayable unit.
type View struct {
	// ID is the identifier routes refer to.
	ID ID `json:"id"`

	// Title is a human readable title, used for the document title.
	Title string `json:"title,omitempty"`

	// Component is the name of the client component that renders the view
	// (e.g. "components/ViewEvent").
	Component string `json:"component,omitempty"`
}

// Registry holds the set of known views. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	views map[ID]View
}

// NewRegistry creates a registry holding the given views.
func NewRegistry(views ...View) (*Registry, error) {
	r := &Registry{views: make(map[ID]View, len(views))}
	for _, v := range views {
		if err := r.Register(v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a view. Registering an empty or duplicate ID is an error.
func (r *Registry) Register(v View) error {
	if v.ID == "" {
		return fmt.Errorf("views: empty view id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[v.ID]; exists {
		return fmt.Errorf("views: duplicate view id %q", v.ID)
	}
	r.views[v.ID] = v
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(v View) {
	if err := r.Register(v); err != nil {
		panic(err)
	}
}

// Lookup returns the view with the given ID.
func (r *Registry) Lookup(id ID) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	return v, ok
}

// IDs returns all registered IDs in sorted order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.views))
	for id := range r.views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate reports every id that is not registered.
func (r *Registry) Validate(ids ...ID) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, id := range ids {
		if _, ok := r.views[id]; !ok {
			missing = append(missing, string(id))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("views: unknown view ids: %s", strings.Join(missing, ", "))
	}
	return nil
}
