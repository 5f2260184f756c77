package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/vango-dev/eventroutes/internal/errors"
	"github.com/vango-dev/eventroutes/pkg/router"
	"github.com/vango-dev/eventroutes/pkg/views"
)

// RouteInfo is the wire form of a resolved route, shared by the API, the
// SPA bootstrap document and WebSocket messages.
type RouteInfo struct {
	Name      string            `json:"name"`
	Path      string            `json:"path"`
	FullPath  string            `json:"fullPath"`
	Location  string            `json:"location"`
	Params    map[string]string `json:"params"`
	Query     url.Values        `json:"query,omitempty"`
	Props     map[string]string `json:"props,omitempty"`
	View      views.ID          `json:"view"`
	Component string            `json:"component,omitempty"`
	Title     string            `json:"title,omitempty"`
}

// ErrorInfo is the wire form of an error.
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// routeInfo converts r for the wire, attaching its view description.
func (s *Server) routeInfo(r *router.Resolved) *RouteInfo {
	if r == nil {
		return nil
	}
	info := &RouteInfo{
		Name:     r.Name,
		Path:     r.Path,
		FullPath: r.FullPath(),
		Location: s.table.Location(r),
		Params:   r.Params,
		Query:    r.Query,
		Props:    r.Props(),
		View:     r.View,
	}
	if s.views != nil {
		if v, ok := s.views.Lookup(r.View); ok {
			info.Component = v.Component
			info.Title = v.Title
		}
	}
	return info
}

// errorInfo classifies err into its wire form.
func errorInfo(err error) *ErrorInfo {
	re := errors.Classify(err)
	return &ErrorInfo{
		Code:    re.Code,
		Message: re.Message,
		Error:   err.Error(),
	}
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case "R001", "R003":
		return http.StatusNotFound
	case "R002", "R004", "R005", "R040":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	info := errorInfo(err)
	status := statusFor(info.Code)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, info)
}

type routesResponse struct {
	Base   string            `json:"base"`
	Routes []router.RouteDef `json:"routes"`
	Views  []views.View      `json:"views,omitempty"`
}

// handleRoutes serves the route table.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	resp := routesResponse{
		Base:   s.table.Base(),
		Routes: s.table.Routes(),
	}
	if s.views != nil {
		for _, id := range s.views.IDs() {
			v, _ := s.views.Lookup(id)
			resp.Views = append(resp.Views, v)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResolve resolves the app-relative path in the "path" query parameter.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, &ErrorInfo{
			Code:    "R005",
			Message: "Invalid path",
			Error:   "missing path query parameter",
		})
		return
	}

	resolved, err := s.table.Resolve(path)
	s.metrics.RecordResolve(resolved, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.routeInfo(resolved))
}

type urlResponse struct {
	Path string `json:"path"`
	Href string `json:"href"`
}

// handleURL builds the path of the route named by "name". Every other query
// parameter is a route param.
func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, &ErrorInfo{
			Code:    "R003",
			Message: "Unknown route",
			Error:   "missing name query parameter",
		})
		return
	}

	params := make(map[string]string, len(q))
	for k := range q {
		if k != "name" {
			params[k] = q.Get(k)
		}
	}

	path, err := s.table.URL(name, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	href, err := s.table.Href(name, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{Path: path, Href: href})
}
