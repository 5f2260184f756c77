package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bootstrapOf(t *testing.T, body string) bootstrap {
	t.Helper()
	const open = `<script id="eventroutes-bootstrap" type="application/json">`
	start := strings.Index(body, open)
	if start < 0 {
		t.Fatalf("bootstrap script not found in:\n%s", body)
	}
	rest := body[start+len(open):]
	end := strings.Index(rest, "</script>")
	if end < 0 {
		t.Fatal("bootstrap script not closed")
	}

	var b bootstrap
	if err := json.Unmarshal([]byte(rest[:end]), &b); err != nil {
		t.Fatalf("invalid bootstrap JSON %q: %v", rest[:end], err)
	}
	return b
}

func TestShell(t *testing.T) {
	srv := newTestServer(t, "/")

	tests := []struct {
		path       string
		wantStatus int
		wantRoute  string
		wantTitle  string
		wantCode   string
	}{
		{"/", http.StatusOK, "login", "Sign in", ""},
		{"/events", http.StatusOK, "events", "Events", ""},
		{"/events/42", http.StatusOK, "view-event", "Event", ""},
		{"/events/add", http.StatusOK, "add-event", "Add event", ""},
		{"/events/42/edit?from=list", http.StatusOK, "edit-event", "Edit event", ""},
		{"/nowhere", http.StatusNotFound, "", "Events", "R001"},
		{"/events/42/edit/extra", http.StatusNotFound, "", "Events", "R001"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := get(t, srv, tc.path)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			if !strings.Contains(body, "<title>"+tc.wantTitle+"</title>") {
				t.Errorf("title %q not found in body", tc.wantTitle)
			}

			b := bootstrapOf(t, body)
			if b.WS != "/ws" || b.Base != "/" {
				t.Errorf("bootstrap ws=%q base=%q", b.WS, b.Base)
			}
			if tc.wantCode != "" {
				if b.Route != nil {
					t.Errorf("route = %+v, want none", b.Route)
				}
				if b.Error == nil || b.Error.Code != tc.wantCode {
					t.Errorf("error = %+v, want code %s", b.Error, tc.wantCode)
				}
				return
			}
			if b.Route == nil || b.Route.Name != tc.wantRoute {
				t.Fatalf("route = %+v, want %s", b.Route, tc.wantRoute)
			}
			if !strings.Contains(body, `data-route="`+tc.wantRoute+`"`) {
				t.Error("expected data-route attribute on the app element")
			}
		})
	}
}

func TestShell_CanonicalRedirect(t *testing.T) {
	srv := newTestServer(t, "/")

	tests := []struct {
		path string
		want string
	}{
		{"/events/", "/events"},
		{"/events//42", "/events/42"},
		{"/events/./add", "/events/add"},
		{"/events/42/?x=1", "/events/42?x=1"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := get(t, srv, tc.path)
			if rec.Code != http.StatusPermanentRedirect {
				t.Fatalf("status = %d, want 308", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tc.want {
				t.Errorf("Location = %q, want %q", loc, tc.want)
			}
		})
	}
}

func TestShell_MalformedPath(t *testing.T) {
	srv := newTestServer(t, "/")
	rec := get(t, srv, "/events/%00")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	b := bootstrapOf(t, rec.Body.String())
	if b.Error == nil || b.Error.Code != "R005" {
		t.Errorf("error = %+v, want R005", b.Error)
	}
}

func TestShell_BasePath(t *testing.T) {
	srv := newTestServer(t, "/app")

	rec := get(t, srv, "/app/events/42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	b := bootstrapOf(t, rec.Body.String())
	if b.Base != "/app" {
		t.Errorf("base = %q, want /app", b.Base)
	}
	if b.Route == nil || b.Route.Path != "/events/42" || b.Route.Location != "/app/events/42" {
		t.Errorf("route = %+v, want path /events/42 at /app/events/42", b.Route)
	}

	if rec := get(t, srv, "/app"); rec.Code != http.StatusOK {
		t.Errorf("GET /app status = %d, want 200 (login)", rec.Code)
	}
	if rec := get(t, srv, "/events"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /events outside base status = %d, want 404", rec.Code)
	}

	// Browser history entries carry the base, so popstate must not use the
	// app-relative visit op.
	if body := rec.Body.String(); !strings.Contains(body, `op: "location"`) || strings.Contains(body, `op: "visit"`) {
		t.Error("shell client should report popstate locations with the location op")
	}
}

func TestShell_Head(t *testing.T) {
	srv := newTestServer(t, "/")
	req := httptest.NewRequest(http.MethodHead, "/events", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body length = %d, want 0", rec.Body.Len())
	}
}
