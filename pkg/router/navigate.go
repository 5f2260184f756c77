package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/vango-dev/eventroutes/pkg/history"
	"github.com/vango-dev/eventroutes/pkg/routepath"
)

// maxRedirects bounds how many middleware redirects one navigation follows.
const maxRedirects = 8

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Query is appended to the target path.
	Query url.Values
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithQuery adds query parameters to the navigation target.
func WithQuery(q url.Values) NavigateOption {
	return func(o *NavigateOptions) {
		o.Query = q
	}
}

// Navigator drives navigation for one client session. It owns the session's
// history stack and current route; the route table is shared.
//
// A Navigator is not safe for concurrent use. Navigation events are processed
// one at a time, to completion, by whoever owns the session.
type Navigator struct {
	table      *Table
	history    *history.Stack
	current    *Resolved
	middleware []Middleware
	logger     *slog.Logger

	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(from, to *Resolved)
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithMiddleware adds middleware run around every transition.
func WithMiddleware(mw ...Middleware) NavigatorOption {
	return func(n *Navigator) {
		n.middleware = append(n.middleware, mw...)
	}
}

// WithHistory sets the history stack. The default is an unbounded stack.
func WithHistory(h *history.Stack) NavigatorOption {
	return func(n *Navigator) {
		n.history = h
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) NavigatorOption {
	return func(n *Navigator) {
		n.logger = l
	}
}

// NewNavigator creates a navigator over table.
func NewNavigator(table *Table, opts ...NavigatorOption) *Navigator {
	n := &Navigator{table: table}
	for _, opt := range opts {
		opt(n)
	}
	if n.history == nil {
		n.history = history.New(0)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// Use adds middleware.
func (n *Navigator) Use(mw ...Middleware) {
	n.middleware = append(n.middleware, mw...)
}

// Table returns the route table.
func (n *Navigator) Table() *Table { return n.table }

// Current returns the active route, or nil before the first navigation.
func (n *Navigator) Current() *Resolved { return n.current }

// History returns a copy of the history entries.
func (n *Navigator) History() []string { return n.history.Entries() }

// Index returns the history cursor, -1 before the first navigation.
func (n *Navigator) Index() int { return n.history.Index() }

// CanGoBack reports whether Back would find an entry.
func (n *Navigator) CanGoBack() bool { return n.history.CanGoBack() }

// CanGoForward reports whether Forward would find an entry.
func (n *Navigator) CanGoForward() bool { return n.history.CanGoForward() }

// OnChange registers fn to be called after every committed transition.
// The returned function unregisters it.
func (n *Navigator) OnChange(fn func(from, to *Resolved)) func() {
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range n.listeners {
			if l.id == id {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

// Navigate goes to the named route.
//
// The path is built from params (a *MissingParamError if a variable segment
// has no value), resolved, passed through the middleware chain and then pushed
// onto history (or replaced, with WithReplace). Navigating to the active path
// with the same params and query is a no-op that returns the current route.
func (n *Navigator) Navigate(ctx context.Context, name string, params map[string]string, opts ...NavigateOption) (*Resolved, error) {
	path, err := n.table.URL(name, params)
	if err != nil {
		return nil, err
	}
	return n.NavigateTo(ctx, path, opts...)
}

// NavigateTo goes to a path relative to the table's base, as typed into the
// address bar. Absolute URLs are rejected with ErrInvalidPath.
func (n *Navigator) NavigateTo(ctx context.Context, path string, opts ...NavigateOption) (*Resolved, error) {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	target, err := routepath.ValidateNavPath(path)
	if err != nil {
		return nil, fmt.Errorf("navigate to %q: %w", path, err)
	}
	if len(o.Query) > 0 {
		target = appendQuery(target, o.Query)
	}

	to, err := n.table.Resolve(target)
	if err != nil {
		return nil, err
	}

	kind := TransitionPush
	if o.Replace {
		kind = TransitionReplace
	}
	return n.run(ctx, to, kind, 0)
}

// Back moves one entry back in history.
func (n *Navigator) Back(ctx context.Context) (*Resolved, error) {
	return n.Go(ctx, -1)
}

// Forward moves one entry forward in history.
func (n *Navigator) Forward(ctx context.Context) (*Resolved, error) {
	return n.Go(ctx, 1)
}

// Go moves delta entries through history. It returns ErrNoHistory, changing
// nothing, when no entry exists there. The entry is re-resolved against the
// table and runs through middleware like any other transition.
func (n *Navigator) Go(ctx context.Context, delta int) (*Resolved, error) {
	if delta == 0 {
		if n.current == nil {
			return nil, ErrNoHistory
		}
		return n.current, nil
	}

	path, ok := n.history.Peek(delta)
	if !ok {
		return nil, ErrNoHistory
	}

	to, err := n.table.Resolve(path)
	if err != nil {
		return nil, err
	}
	return n.run(ctx, to, TransitionTraverse, delta)
}

// run takes a resolved target through middleware and commits it.
// History and the current route are untouched until the chain succeeds.
func (n *Navigator) run(ctx context.Context, to *Resolved, kind TransitionKind, delta int) (*Resolved, error) {
	redirected := false

	for hops := 0; ; hops++ {
		if kind != TransitionTraverse && n.current.Same(to) {
			return n.current, nil
		}

		t := &Transition{From: n.current, To: to, Kind: kind, Redirects: hops, ctx: ctx}
		err := ComposeMiddleware(t, n.middleware, func() error {
			t.admitted = true
			return nil
		})

		var redirect *RedirectError
		switch {
		case errors.As(err, &redirect):
			if hops+1 > maxRedirects {
				return nil, fmt.Errorf("navigate to %s: %w", to.FullPath(), ErrRedirectLoop)
			}
			target, rerr := routepath.ValidateNavPath(redirect.Path)
			if rerr != nil {
				return nil, fmt.Errorf("redirect from %s: %w", to.FullPath(), rerr)
			}
			next, rerr := n.table.Resolve(target)
			if rerr != nil {
				return nil, fmt.Errorf("redirect from %s: %w", to.FullPath(), rerr)
			}
			n.logger.Debug("navigation redirected", "from", to.FullPath(), "to", next.FullPath())
			to = next
			redirected = true
			continue
		case err != nil:
			n.logger.Debug("navigation rejected", "to", to.FullPath(), "error", err)
			return nil, err
		case !t.admitted:
			return nil, fmt.Errorf("navigate to %s: %w", to.FullPath(), ErrAborted)
		}

		n.commit(to, kind, delta, redirected)
		return to, nil
	}
}

func (n *Navigator) commit(to *Resolved, kind TransitionKind, delta int, redirected bool) {
	switch kind {
	case TransitionTraverse:
		n.history.Go(delta)
		if redirected {
			n.history.Replace(to.FullPath())
		}
	case TransitionReplace:
		n.history.Replace(to.FullPath())
	default:
		n.history.Push(to.FullPath())
	}

	from := n.current
	n.current = to

	n.logger.Debug("navigated",
		"route", to.Name,
		"path", to.FullPath(),
		"kind", kind.String(),
		"history_index", n.history.Index(),
	)

	for _, l := range append([]listener(nil), n.listeners...) {
		l.fn(from, to)
	}
}

func appendQuery(path string, q url.Values) string {
	p, existing, _ := strings.Cut(path, "?")
	merged, _ := url.ParseQuery(existing)
	if merged == nil {
		merged = url.Values{}
	}
	for k, vs := range q {
		merged[k] = append([]string(nil), vs...)
	}
	return p + "?" + merged.Encode()
}
