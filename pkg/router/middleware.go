package router

import (
	"context"
	"fmt"
)

// TransitionKind says how a transition changes the history stack.
type TransitionKind int

const (
	// TransitionPush appends a new history entry.
	TransitionPush TransitionKind = iota
	// TransitionReplace overwrites the current history entry.
	TransitionReplace
	// TransitionTraverse moves through existing entries (back/forward).
	TransitionTraverse
)

// String returns the kind name.
func (k TransitionKind) String() string {
	switch k {
	case TransitionPush:
		return "push"
	case TransitionReplace:
		return "replace"
	case TransitionTraverse:
		return "traverse"
	default:
		return fmt.Sprintf("TransitionKind(%d)", int(k))
	}
}

// Transition describes a pending navigation. Middleware inspects it before
// the navigator commits anything.
type Transition struct {
	// From is the active route, nil on the first navigation.
	From *Resolved

	// To is the route being entered.
	To *Resolved

	// Kind is how history will change if the transition commits.
	Kind TransitionKind

	// Redirects counts redirects already followed to reach To.
	Redirects int

	ctx      context.Context
	admitted bool
}

// Admitted reports whether the chain reached the navigator, so the
// transition commits. It is meaningful once next has returned: a nil error
// with Admitted false means some middleware cancelled silently.
func (t *Transition) Admitted() bool {
	return t.admitted
}

// Context returns the transition's context.
func (t *Transition) Context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// SetContext replaces the context seen by the rest of the chain.
// Tracing middleware uses it to hand its span to downstream middleware.
func (t *Transition) SetContext(ctx context.Context) {
	t.ctx = ctx
}

// Middleware runs around every transition.
type Middleware interface {
	// Handle processes the transition and optionally calls next.
	// Return Redirect(path) to send the navigation elsewhere, any other
	// error to abort it, or nil without calling next to cancel silently.
	// Nothing is committed unless every middleware calls next.
	Handle(t *Transition, next func() error) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(t *Transition, next func() error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(t *Transition, next func() error) error {
	return f(t, next)
}

// ComposeMiddleware builds a chain from middleware and a final handler.
// Middleware runs in order (first to last), with the handler at the end.
func ComposeMiddleware(t *Transition, mw []Middleware, handler func() error) error {
	if len(mw) == 0 {
		return handler()
	}

	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func() error {
			return m.Handle(t, next)
		}
	}

	return chain()
}

// Chain combines multiple middleware into one, run in order.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(t *Transition, next func() error) error {
		return ComposeMiddleware(t, middleware, next)
	})
}

// Guard adapts a check into middleware. A nil result continues the chain;
// an error (including Redirect) stops it.
func Guard(check func(t *Transition) error) Middleware {
	return MiddlewareFunc(func(t *Transition, next func() error) error {
		if err := check(t); err != nil {
			return err
		}
		return next()
	})
}

// Skip bypasses mw when condition holds.
func Skip(condition func(t *Transition) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(t *Transition, next func() error) error {
		if condition(t) {
			return next()
		}
		return mw.Handle(t, next)
	})
}

// Only runs mw only when condition holds.
func Only(condition func(t *Transition) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(t *Transition, next func() error) error {
		if !condition(t) {
			return next()
		}
		return mw.Handle(t, next)
	})
}

// ForRoutes is a condition matching transitions into any of the named routes.
func ForRoutes(names ...string) func(t *Transition) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(t *Transition) bool {
		return t.To != nil && set[t.To.Name]
	}
}
