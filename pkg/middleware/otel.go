package middleware

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/eventroutes/pkg/router"
)

// Default tracer name for navigation spans.
const defaultTracerName = "eventroutes"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "eventroutes").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// IncludeParams records route params as span attributes.
	// Params may identify users or records - disabled by default.
	IncludeParams bool

	// Filter determines which transitions to trace.
	// Return true to trace, false to skip. If nil, all are traced.
	Filter func(t *router.Transition) bool

	// AttributeExtractor adds custom attributes for each traced transition.
	AttributeExtractor func(t *router.Transition) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeParams enables recording route params in spans.
func WithIncludeParams(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeParams = include
	}
}

// WithTransitionFilter sets a filter function for transitions.
func WithTransitionFilter(filter func(t *router.Transition) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(t *router.Transition) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:    defaultTracerName,
		IncludeParams: false,
		Filter:        nil,
	}
}

// OpenTelemetry creates middleware that traces every navigation transition.
//
// The middleware:
//   - Creates a span per transition with target route, path, kind and origin
//   - Hands the span's context to the rest of the chain via t.SetContext
//   - Records redirects as span events
//   - Records errors and sets span status
//
// Example:
//
//	nav := router.NewNavigator(table,
//	    router.WithMiddleware(middleware.OpenTelemetry(
//	        middleware.WithTracerName("events-app"),
//	    )),
//	)
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before starting:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	config.tracer = tp.Tracer(config.TracerName)

	return router.MiddlewareFunc(func(t *router.Transition, next func() error) error {
		if config.Filter != nil && !config.Filter(t) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("eventroutes.kind", t.Kind.String()),
			attribute.Int("eventroutes.redirects", t.Redirects),
		}
		if t.To != nil {
			attrs = append(attrs,
				attribute.String("eventroutes.route", t.To.Name),
				attribute.String("eventroutes.path", t.To.Path),
				attribute.String("eventroutes.view", string(t.To.View)),
			)
			if config.IncludeParams {
				for name, value := range t.To.Params {
					attrs = append(attrs, attribute.String("eventroutes.param."+name, value))
				}
			}
		}
		if t.From != nil {
			attrs = append(attrs, attribute.String("eventroutes.from_route", t.From.Name))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(t)...)
		}

		parent := t.Context()
		spanCtx, span := config.tracer.Start(
			parent,
			formatSpanName(t),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		t.SetContext(spanCtx)
		err := next()
		t.SetContext(parent)

		var redirect *router.RedirectError
		switch {
		case err == nil && t.Admitted():
			span.SetStatus(codes.Ok, "")
		case err == nil:
			span.SetStatus(codes.Error, router.ErrAborted.Error())
		case errors.As(err, &redirect):
			span.AddEvent("redirect", trace.WithAttributes(attribute.String("eventroutes.redirect_to", redirect.Path)))
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return err
	})
}

// SpanFromTransition returns the span started for t by OpenTelemetry, or a
// no-op span when none is active.
//
// Example:
//
//	router.Guard(func(t *router.Transition) error {
//	    middleware.SpanFromTransition(t).SetAttributes(attribute.Bool("auth.ok", true))
//	    return nil
//	})
func SpanFromTransition(t *router.Transition) trace.Span {
	return trace.SpanFromContext(t.Context())
}

// TraceContext returns the context carrying the navigation span, for
// propagation to outgoing calls made by guards.
func TraceContext(t *router.Transition) context.Context {
	return t.Context()
}

// formatSpanName creates a span name from the transition.
func formatSpanName(t *router.Transition) string {
	if t.To == nil || t.To.Name == "" {
		return "navigate"
	}
	return fmt.Sprintf("navigate %s", t.To.Name)
}
