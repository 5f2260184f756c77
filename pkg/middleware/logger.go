package middleware

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/eventroutes/pkg/router"
)

// Logger creates middleware that logs every transition: committed ones at
// Info, redirects at Debug and rejections at Warn. Installed after
// OpenTelemetry, entries carry the navigation's trace_id.
func Logger(logger *slog.Logger) router.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return router.MiddlewareFunc(func(t *router.Transition, next func() error) error {
		start := time.Now()
		err := next()

		attrs := []any{
			"route", routeLabel(t.To),
			"kind", t.Kind.String(),
			"duration", time.Since(start),
		}
		if t.To != nil {
			attrs = append(attrs, "path", t.To.FullPath())
		}
		if t.From != nil {
			attrs = append(attrs, "from", t.From.Name)
		}

		ctx := t.Context()
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			attrs = append(attrs, "trace_id", sc.TraceID().String())
		}

		var redirect *router.RedirectError
		switch {
		case err == nil && t.Admitted():
			logger.InfoContext(ctx, "navigation", attrs...)
		case err == nil:
			logger.DebugContext(ctx, "navigation cancelled", attrs...)
		case errors.As(err, &redirect):
			logger.DebugContext(ctx, "navigation redirected", append(attrs, "to", redirect.Path)...)
		default:
			logger.WarnContext(ctx, "navigation rejected", append(attrs, "error", err)...)
		}
		return err
	})
}
