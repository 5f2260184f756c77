package server

import (
	"html/template"
	"net/http"

	"github.com/vango-dev/eventroutes/pkg/routepath"
)

// shellTemplate is the single HTML document served for every client-side
// route. The bootstrap JSON lets the client render the first view without a
// round trip; later navigations go over the WebSocket.
var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script id="eventroutes-bootstrap" type="application/json">{{.Bootstrap}}</script>
</head>
<body>
<div id="app"{{with .Bootstrap.Route}} data-route="{{.Name}}" data-view="{{.View}}"{{end}}></div>
<script>
(function () {
  var boot = JSON.parse(document.getElementById("eventroutes-bootstrap").textContent);
  var app = document.getElementById("app");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + boot.ws + "?location=" + encodeURIComponent(location.pathname + location.search));
  function render(route) {
    app.dataset.route = route.name;
    app.dataset.view = route.view;
    if (route.title) { document.title = route.title; }
    if (route.location !== location.pathname + location.search) {
      history.pushState(null, "", route.location);
    }
  }
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "route") { render(msg.route); }
  };
  window.addEventListener("popstate", function () {
    ws.send(JSON.stringify({op: "location", path: location.pathname + location.search, replace: true}));
  });
  document.addEventListener("click", function (ev) {
    var a = ev.target.closest && ev.target.closest("a[data-route]");
    if (!a) { return; }
    ev.preventDefault();
    ws.send(JSON.stringify({op: "navigate", name: a.dataset.route, params: JSON.parse(a.dataset.params || "{}")}));
  });
})();
</script>
</body>
</html>
`))

type bootstrap struct {
	Base  string     `json:"base"`
	WS    string     `json:"ws"`
	Route *RouteInfo `json:"route"`
	Error *ErrorInfo `json:"error,omitempty"`
}

type shellData struct {
	Title     string
	Bootstrap bootstrap
}

// handleShell serves the SPA document for a browser location. Non-canonical
// paths are redirected with 308; locations that resolve to no route get the
// document with status 404.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	input := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		input += "?" + r.URL.RawQuery
	}

	data := shellData{
		Title:     s.config.Title,
		Bootstrap: bootstrap{Base: s.table.Base(), WS: "/ws"},
	}

	result, err := routepath.CanonicalizePath(input)
	if err != nil {
		data.Bootstrap.Error = errorInfo(err)
		s.metrics.RecordResolve(nil, err)
		s.renderShell(w, r, http.StatusBadRequest, data)
		return
	}
	if result.Changed {
		target := result.Path
		if result.Query != "" {
			target += "?" + result.Query
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
		return
	}

	resolved, err := s.table.ResolveLocation(input)
	s.metrics.RecordResolve(resolved, err)
	if err != nil {
		data.Bootstrap.Error = errorInfo(err)
		s.renderShell(w, r, statusFor(data.Bootstrap.Error.Code), data)
		return
	}

	info := s.routeInfo(resolved)
	data.Bootstrap.Route = info
	if info.Title != "" {
		data.Title = info.Title
	}
	s.renderShell(w, r, http.StatusOK, data)
}

func (s *Server) renderShell(w http.ResponseWriter, r *http.Request, status int, data shellData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if err := shellTemplate.Execute(w, data); err != nil {
		s.logger.ErrorContext(r.Context(), "shell render failed", "error", err)
	}
}
