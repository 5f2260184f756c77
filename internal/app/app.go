// Package app declares the events application's route table and views.
package app

import (
	"fmt"

	"github.com/vango-dev/eventroutes/pkg/router"
	"github.com/vango-dev/eventroutes/pkg/views"
)

// Route names.
const (
	RouteLogin     = "login"
	RouteEvents    = "events"
	RouteViewEvent = "view-event"
	RouteAddEvent  = "add-event"
	RouteEditEvent = "edit-event"
)

// View identifiers.
const (
	ViewLogin     views.ID = "LoginView"
	ViewEvents    views.ID = "EventView"
	ViewViewEvent views.ID = "ViewEvent"
	ViewAddEvent  views.ID = "AddEvent"
	ViewEditEvent views.ID = "EditEvent"
)

// Routes returns the application's route definitions in declaration order.
// Matching does not depend on the order: "/events/add" resolves to add-event
// although "/events/:id" comes first.
func Routes() []router.RouteDef {
	return []router.RouteDef{
		{Pattern: "/", Name: RouteLogin, View: ViewLogin},
		{Pattern: "/events", Name: RouteEvents, View: ViewEvents},
		{Pattern: "/events/:id", Name: RouteViewEvent, View: ViewViewEvent, Props: true},
		{Pattern: "/events/add", Name: RouteAddEvent, View: ViewAddEvent},
		{Pattern: "/events/:id/edit", Name: RouteEditEvent, View: ViewEditEvent, Props: true},
	}
}

// Views returns the application's view descriptions.
func Views() []views.View {
	return []views.View{
		{ID: ViewLogin, Title: "Sign in", Component: "views/LoginView"},
		{ID: ViewEvents, Title: "Events", Component: "views/EventView"},
		{ID: ViewViewEvent, Title: "Event", Component: "components/ViewEvent"},
		{ID: ViewAddEvent, Title: "Add event", Component: "components/AddEvent"},
		{ID: ViewEditEvent, Title: "Edit event", Component: "components/UpdateEvent"},
	}
}

// EditEventProps are the props handed to the edit view.
type EditEventProps struct {
	ID string `param:"id"`
}

// ViewEventProps are the props handed to the event view.
type ViewEventProps struct {
	ID string `param:"id"`
}

// Build compiles the application table, plus any extra routes, under base
// and returns it with a view registry covering every route.
//
// Views of extra routes that are not built in are registered with their id
// as component name.
func Build(base string, extra ...router.RouteDef) (*router.Table, *views.Registry, error) {
	registry, err := views.NewRegistry(Views()...)
	if err != nil {
		return nil, nil, err
	}
	for _, def := range extra {
		if _, ok := registry.Lookup(def.View); ok || def.View == "" {
			continue
		}
		if err := registry.Register(views.View{ID: def.View, Component: "views/" + string(def.View)}); err != nil {
			return nil, nil, err
		}
	}

	defs := append(Routes(), extra...)
	table, err := router.NewTable(defs, router.WithBase(base))
	if err != nil {
		return nil, nil, fmt.Errorf("build route table: %w", err)
	}
	if err := registry.Validate(table.Views()...); err != nil {
		return nil, nil, err
	}
	return table, registry, nil
}

// NewTable builds the application table with no base path and no extra
// routes.
func NewTable() *router.Table {
	return router.MustTable(Routes())
}
