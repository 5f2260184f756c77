// Package router resolves client-side URL paths to views and drives
// browser-style navigation.
//
// The package provides:
//   - RouteDef and Table: an immutable, ordered route table
//   - Segment-tree matching with explicit specificity ranking
//   - Parameter extraction, typed parameters and path building by name
//   - Navigator: push/replace/back/forward over a history stack
//   - Middleware around every transition (guards, redirects, instrumentation)
//
// # Patterns
//
//	/                    → static
//	/events/:id          → :id (string)
//	/events/:id:int      → :id (must parse as an integer)
//	/files/*path         → *path (catch-all, one or more segments)
//
// # Specificity
//
// At every segment position a static segment outranks a parameter, which
// outranks a catch-all. "/events/add" therefore resolves to the add route
// even when "/events/:id" is declared first. Patterns with the same shape
// ("/events/:id" and "/events/:slug") are rejected when the table is built.
//
// # Usage
//
//	table, err := router.NewTable([]router.RouteDef{
//	    {Pattern: "/events", Name: "events", View: "EventView"},
//	    {Pattern: "/events/:id", Name: "view-event", View: "ViewEvent", Props: true},
//	    {Pattern: "/events/add", Name: "add-event", View: "AddEvent"},
//	})
//
//	r, err := table.Resolve("/events/42")
//	// r.Name == "view-event", r.Params["id"] == "42"
//
//	nav := router.NewNavigator(table)
//	nav.Navigate(ctx, "view-event", map[string]string{"id": "42"})
//	nav.Back(ctx)
package router
