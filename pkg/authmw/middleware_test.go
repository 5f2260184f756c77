package authmw_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/eventroutes/pkg/authmw"
	"github.com/vango-dev/eventroutes/pkg/router"
)

type TestUser struct {
	ID   string
	Role string
}

func eventsTable(t *testing.T) *router.Table {
	t.Helper()
	return router.MustTable([]router.RouteDef{
		{Pattern: "/", Name: "login", View: "LoginView"},
		{Pattern: "/events", Name: "events", View: "EventView"},
		{Pattern: "/events/:id", Name: "view-event", View: "ViewEvent", Props: true},
		{Pattern: "/events/add", Name: "add-event", View: "AddEvent"},
	})
}

func navigator(t *testing.T, mw ...router.Middleware) *router.Navigator {
	t.Helper()
	return router.NewNavigator(eventsTable(t),
		router.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		router.WithMiddleware(mw...),
	)
}

func transition(ctx context.Context) *router.Transition {
	tr := &router.Transition{To: &router.Resolved{Name: "events", Path: "/events"}}
	tr.SetContext(ctx)
	return tr
}

func TestRequireAuthMiddleware(t *testing.T) {
	t.Run("unauthenticated returns ErrUnauthorized and does not call next", func(t *testing.T) {
		err := authmw.RequireAuth.Handle(transition(context.Background()), func() error {
			t.Fatal("next should not be called")
			return nil
		})
		if !errors.Is(err, authmw.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("authenticated calls next", func(t *testing.T) {
		ctx := authmw.WithUser(context.Background(), &TestUser{ID: "1"})
		called := false
		err := authmw.RequireAuth.Handle(transition(ctx), func() error {
			called = true
			return nil
		})
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if !called {
			t.Fatal("expected next to be called")
		}
	})
}

func TestRequireRole(t *testing.T) {
	isAdmin := func(u *TestUser) bool {
		return u.Role == "admin"
	}

	tests := []struct {
		name    string
		user    *TestUser
		wantErr error
	}{
		{name: "unauthenticated returns ErrUnauthorized", user: nil, wantErr: authmw.ErrUnauthorized},
		{name: "authenticated but not authorized returns ErrForbidden", user: &TestUser{Role: "user"}, wantErr: authmw.ErrForbidden},
		{name: "authorized calls next", user: &TestUser{Role: "admin"}, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = authmw.WithUser(ctx, tt.user)
			}
			called := false
			err := authmw.RequireRole[*TestUser](isAdmin).Handle(transition(ctx), func() error {
				called = true
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if called != (tt.wantErr == nil) {
				t.Fatalf("next called = %v, want %v", called, tt.wantErr == nil)
			}
		})
	}
}

func TestRequireLogin(t *testing.T) {
	guard := authmw.RequireLogin("/", "login")

	t.Run("anonymous is sent to login with next", func(t *testing.T) {
		nav := navigator(t, guard)
		r, err := nav.Navigate(context.Background(), "view-event", map[string]string{"id": "42"})
		if err != nil {
			t.Fatalf("Navigate error: %v", err)
		}
		if r.Name != "login" {
			t.Fatalf("landed on %q, want login", r.Name)
		}
		if got := authmw.NextLocation(r, "/events"); got != "/events/42" {
			t.Errorf("NextLocation = %q, want /events/42", got)
		}
		if h := nav.History(); len(h) != 1 || h[0] != "/?next=%2Fevents%2F42" {
			t.Errorf("history = %v", h)
		}
	})

	t.Run("public route stays open", func(t *testing.T) {
		nav := navigator(t, guard)
		r, err := nav.Navigate(context.Background(), "login", nil)
		if err != nil {
			t.Fatalf("Navigate error: %v", err)
		}
		if r.Name != "login" || len(r.Query) != 0 {
			t.Errorf("route = %+v, want plain login", r)
		}
	})

	t.Run("signed in user passes", func(t *testing.T) {
		nav := navigator(t, guard)
		ctx := authmw.WithUser(context.Background(), &TestUser{ID: "1"})
		r, err := nav.Navigate(ctx, "add-event", nil)
		if err != nil {
			t.Fatalf("Navigate error: %v", err)
		}
		if r.Name != "add-event" {
			t.Errorf("landed on %q, want add-event", r.Name)
		}
	})
}

func TestNextLocation(t *testing.T) {
	table := eventsTable(t)

	tests := []struct {
		path string
		want string
	}{
		{"/?next=%2Fevents%2Fadd", "/events/add"},
		{"/", "/events"},
		{"/?next=https%3A%2F%2Fevil.com", "/events"},
		{"/?next=%2F%2Fevil.com", "/events"},
		{"/?next=%2F%5Cevil.com", "/events"},
		{"/?next=%2F", "/"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r, err := table.Resolve(tc.path)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if got := authmw.NextLocation(r, "/events"); got != tc.want {
				t.Errorf("NextLocation = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUserAs(t *testing.T) {
	ctx := authmw.WithUser(context.Background(), &TestUser{ID: "7"})
	u, ok := authmw.UserAs[*TestUser](ctx)
	if !ok || u.ID != "7" {
		t.Fatalf("UserAs = %+v, %v", u, ok)
	}
	if _, ok := authmw.UserAs[string](ctx); ok {
		t.Error("UserAs with the wrong type should fail")
	}
	if _, ok := authmw.User(context.Background()); ok {
		t.Error("User on an empty context should fail")
	}
}
