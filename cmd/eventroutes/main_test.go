package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/eventroutes/internal/config"
	"github.com/vango-dev/eventroutes/internal/errors"
	"github.com/vango-dev/eventroutes/internal/logging"
	"github.com/vango-dev/eventroutes/pkg/router"
	"github.com/vango-dev/eventroutes/pkg/server"
)

const testConfigTOML = `base = "/app"

[metrics]
namespace = "eventroutes_test"

[[routes]]
pattern = "/events/:id/guests"
name = "event-guests"
view = "EventGuests"
props = true
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.TOMLFileName), []byte(testConfigTOML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if out != version+"\n" {
		t.Errorf("output = %q, want %q", out, version+"\n")
	}
}

func TestRoutes(t *testing.T) {
	dir := writeConfig(t)

	out, err := run(t, "routes", "--config", dir, "--json")
	if err != nil {
		t.Fatalf("routes error: %v", err)
	}
	var defs []router.RouteDef
	if err := json.Unmarshal([]byte(out), &defs); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(defs) != 6 {
		t.Fatalf("got %d routes, want 6", len(defs))
	}
	if defs[5].Name != "event-guests" {
		t.Errorf("last route = %q, want event-guests", defs[5].Name)
	}

	out, err = run(t, "routes", "--config", dir)
	if err != nil {
		t.Fatalf("routes error: %v", err)
	}
	for _, want := range []string{"edit-event", "/events/:id/edit", "components/UpdateEvent", "views/EventGuests", "Base path: /app"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestResolve(t *testing.T) {
	dir := writeConfig(t)

	tests := []struct {
		name     string
		args     []string
		wantName string
	}{
		{"literal", []string{"/events/add"}, "add-event"},
		{"param", []string{"/events/42"}, "view-event"},
		{"extra route", []string{"/events/42/guests"}, "event-guests"},
		{"location", []string{"/app/events/42/edit", "--location"}, "edit-event"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"resolve", "--config", dir, "--json"}, tc.args...)
			out, err := run(t, args...)
			if err != nil {
				t.Fatalf("resolve error: %v", err)
			}
			var r router.Resolved
			if err := json.Unmarshal([]byte(out), &r); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if r.Name != tc.wantName {
				t.Errorf("name = %q, want %q", r.Name, tc.wantName)
			}
		})
	}

	out, err := run(t, "resolve", "--config", dir, "/events/42/edit")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	for _, want := range []string{"edit-event", "View:     EditEvent", "Location: /app/events/42/edit", "id = 42", "Props:    id=42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolve_Errors(t *testing.T) {
	dir := writeConfig(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"not found", []string{"/nowhere"}, "R001"},
		{"outside base", []string{"/events", "--location"}, "R001"},
		{"malformed", []string{`/events\42`}, "R005"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, append([]string{"resolve", "--config", dir}, tc.args...)...)
			if got := errors.Code(err); got != tc.code {
				t.Errorf("error %v has code %q, want %q", err, got, tc.code)
			}
		})
	}
}

func TestURL(t *testing.T) {
	dir := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"static", []string{"events"}, "/events\n"},
		{"param", []string{"view-event", "id=42"}, "/events/42\n"},
		{"href", []string{"edit-event", "id=42", "--href"}, "/app/events/42/edit\n"},
		{"login href", []string{"login", "--href"}, "/app\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, append([]string{"url", "--config", dir}, tc.args...)...)
			if err != nil {
				t.Fatalf("url error: %v", err)
			}
			if out != tc.want {
				t.Errorf("output = %q, want %q", out, tc.want)
			}
		})
	}
}

func TestURL_Errors(t *testing.T) {
	dir := writeConfig(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing param", []string{"edit-event"}, "R002"},
		{"unknown route", []string{"settings"}, "R003"},
		{"bad argument", []string{"view-event", "42"}, "R060"},
		{"empty name", []string{"view-event", "=42"}, "R060"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, append([]string{"url", "--config", dir}, tc.args...)...)
			if got := errors.Code(err); got != tc.code {
				t.Errorf("error %v has code %q, want %q", err, got, tc.code)
			}
		})
	}
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.JSONFileName), []byte(`{"base": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, "routes", "--config", dir)
	if got := errors.Code(err); got != "R020" {
		t.Errorf("error %v has code %q, want R020", err, got)
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.New()
	cfg.Base = "/app"
	cfg.Tracing.Disabled = true
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	srv, shutdown, err := newServer(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("newServer error: %v", err)
	}
	defer shutdown(context.Background())

	if srv.Config().SessionConfig.HistoryLimit != config.DefaultHistoryLimit {
		t.Errorf("HistoryLimit = %d, want %d", srv.Config().SessionConfig.HistoryLimit, config.DefaultHistoryLimit)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/events/42", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /app/events/42 status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"go_goroutines", `eventroutes_resolutions_total{route="view-event",status="success"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNewServer_MetricsDisabled(t *testing.T) {
	cfg := config.New()
	cfg.Metrics.Disabled = true
	cfg.Tracing.Disabled = true
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	srv, _, err := newServer(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("newServer error: %v", err)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want 404", rec.Code)
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"id=42", "q=a=b", "empty="})
	if err != nil {
		t.Fatalf("parseParams error: %v", err)
	}
	if params["id"] != "42" || params["q"] != "a=b" || params["empty"] != "" {
		t.Errorf("params = %v", params)
	}
}

func TestNewServer_RequireLogin(t *testing.T) {
	cfg := config.New()
	cfg.Tracing.Disabled = true
	cfg.Metrics.Disabled = true
	cfg.Auth.RequireLogin = true
	cfg.Auth.Public = []string{"events"}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	srv, _, err := newServer(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("newServer error: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg server.ServerMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != server.TypeHello {
		t.Fatalf("hello = %+v, %v", msg, err)
	}

	tests := []struct {
		name      string
		wantRoute string
	}{
		{"events", "events"},
		{"add-event", "login"},
	}
	for _, tc := range tests {
		if err := conn.WriteJSON(server.ClientMessage{Op: server.OpNavigate, Name: tc.name}); err != nil {
			t.Fatalf("write: %v", err)
		}
		msg = server.ServerMessage{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Route == nil || msg.Route.Name != tc.wantRoute {
			t.Fatalf("navigate %s: reply = %+v, want route %s", tc.name, msg, tc.wantRoute)
		}
	}
	if next := msg.Route.Query.Get("next"); next != "/events/add" {
		t.Errorf("next = %q, want /events/add", next)
	}
}

func TestLoginGuard_BadRoute(t *testing.T) {
	table := router.MustTable([]router.RouteDef{
		{Pattern: "/", Name: "home", View: "Home"},
		{Pattern: "/u/:id", Name: "user", View: "User"},
	})

	for _, name := range []string{"login", "user"} {
		_, err := loginGuard(table, config.AuthConfig{LoginRoute: name})
		if errors.Code(err) != "R021" {
			t.Errorf("loginGuard(%q) error = %v, want R021", name, err)
		}
	}
}
