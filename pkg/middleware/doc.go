// Package middleware provides observability middleware for navigation.
//
// This package includes:
//   - OpenTelemetry tracing of navigation transitions
//   - Prometheus metrics for navigations, resolutions and sessions
//   - Structured logging of transitions with log/slog
//
// All three implement router.Middleware and are installed on a Navigator:
//
//	nav := router.NewNavigator(table,
//	    router.WithMiddleware(
//	        middleware.OpenTelemetry(),
//	        metrics.Middleware(),
//	        middleware.Logger(logger),
//	    ),
//	)
//
// # OpenTelemetry Middleware
//
// Each transition gets a span named "navigate <route>" carrying the target
// route, path, view and transition kind. Later middleware sees the span
// through t.Context():
//
//	router.Guard(func(t *router.Transition) error {
//	    span := middleware.SpanFromTransition(t)
//	    span.AddEvent("auth check")
//	    return nil
//	})
//
// # Prometheus Metrics
//
// NewMetrics registers the collectors with a registry. Prometheus does the
// same with a process-wide instance:
//   - eventroutes_navigations_total
//   - eventroutes_navigation_duration_seconds
//   - eventroutes_navigation_errors_total
//   - eventroutes_resolutions_total
//   - eventroutes_active_sessions
//   - eventroutes_websocket_errors_total
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
