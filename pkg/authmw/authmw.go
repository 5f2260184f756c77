package authmw

import (
	"context"
	"errors"
	"net/url"
	"slices"

	"github.com/vango-dev/eventroutes/pkg/router"
)

var (
	// ErrUnauthorized is returned when no user is signed in.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the user may not enter the route.
	ErrForbidden = errors.New("forbidden")
)

// NextParam is the query parameter carrying the location to return to
// after signing in.
const NextParam = "next"

type userKey struct{}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user any) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// User returns the user stored in ctx, if any.
func User(ctx context.Context) (any, bool) {
	user := ctx.Value(userKey{})
	return user, user != nil
}

// UserAs returns the user stored in ctx as a T.
func UserAs[T any](ctx context.Context) (T, bool) {
	user, ok := ctx.Value(userKey{}).(T)
	return user, ok
}

// RequireAuth rejects transitions with ErrUnauthorized when no user is
// signed in.
var RequireAuth router.Middleware = router.Guard(func(t *router.Transition) error {
	if _, ok := User(t.Context()); !ok {
		return ErrUnauthorized
	}
	return nil
})

// RequireLogin redirects anonymous users to loginPath, keeping the attempted
// location in the "next" query parameter. Routes named in public stay open.
func RequireLogin(loginPath string, public ...string) router.Middleware {
	return router.Guard(func(t *router.Transition) error {
		if slices.Contains(public, t.To.Name) {
			return nil
		}
		if _, ok := User(t.Context()); ok {
			return nil
		}
		q := url.Values{NextParam: {t.To.FullPath()}}
		return router.Redirect(loginPath + "?" + q.Encode())
	})
}

// RequireRole admits users of type T for which check returns true. Anonymous
// users get ErrUnauthorized and other users ErrForbidden.
func RequireRole[T any](check func(T) bool) router.Middleware {
	return router.Guard(func(t *router.Transition) error {
		user, ok := UserAs[T](t.Context())
		if !ok {
			return ErrUnauthorized
		}
		if !check(user) {
			return ErrForbidden
		}
		return nil
	})
}

// NextLocation returns the location saved by RequireLogin on r, or fallback
// when it is missing or not a path inside the application.
func NextLocation(r *router.Resolved, fallback string) string {
	next := r.Query.Get(NextParam)
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	return next
}
