// Package server hosts a route table over HTTP.
//
// Endpoints:
//   - GET /api/routes: the table and its views as JSON
//   - GET /api/resolve?path=/events/42: the resolved route, 404 when no route
//     matches and 400 for malformed paths
//   - GET /api/url?name=view-event&id=42: the path and href of a named route
//   - GET /ws: a WebSocket navigation session
//   - GET /metrics, GET /healthz
//   - GET /*: the SPA document, with the resolved route embedded as JSON
//
// Each WebSocket connection owns one router.Navigator. The client sends
// {"op":"navigate","name":"view-event","params":{"id":"42"}}, "visit" with a
// path, "back", "forward" or "current"; every message is answered with either
// {"type":"route",...} carrying the current route and history, or
// {"type":"error","code":"R001",...}.
//
// Mount the server in another chi router with Handler:
//
//	r := chi.NewRouter()
//	r.Mount("/", srv.Handler())
package server
