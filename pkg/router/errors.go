package router

import (
	"errors"
	"fmt"

	"github.com/vango-dev/eventroutes/pkg/routepath"
)

// Routing errors. Typed errors below match these with errors.Is.
var (
	ErrNotFound       = errors.New("route not found")
	ErrUnknownRoute   = errors.New("unknown route")
	ErrMissingParam   = routepath.ErrMissingParam
	ErrInvalidParam   = errors.New("invalid route parameter")
	ErrInvalidRoute   = errors.New("invalid route definition")
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrNoHistory      = errors.New("no history entry")
	ErrRedirectLoop   = errors.New("too many redirects")
	ErrAborted        = errors.New("navigation aborted")
)

// Path canonicalization errors, re-exported from routepath.
var (
	ErrInvalidPath           = routepath.ErrInvalidPath
	ErrBackslashInPath       = routepath.ErrBackslashInPath
	ErrNullByteInPath        = routepath.ErrNullByteInPath
	ErrInvalidPercentEscape  = routepath.ErrInvalidPercentEscape
	ErrPathEscapesRoot       = routepath.ErrPathEscapesRoot
	ErrEncodedSlashInSegment = routepath.ErrEncodedSlashInSegment
)

// NotFoundError is returned by Resolve when no route matches a path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("route not found: %s", e.Path)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnknownRouteError is returned when a route name is not in the table.
type UnknownRouteError struct {
	Name string
}

func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("unknown route %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownRoute) match.
func (e *UnknownRouteError) Is(target error) bool { return target == ErrUnknownRoute }

// MissingParamError is returned when building a path for a route whose
// variable segment has no value.
type MissingParamError struct {
	Route string
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("route %q: missing parameter %q", e.Route, e.Param)
}

// Is makes errors.Is(err, ErrMissingParam) match.
func (e *MissingParamError) Is(target error) bool { return target == ErrMissingParam }

// InvalidParamError is returned when a param value does not satisfy the
// declared parameter type.
type InvalidParamError struct {
	Route string
	Param string
	Value string
	Type  string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("route %q: parameter %q = %q is not a valid %s", e.Route, e.Param, e.Value, e.Type)
}

// Is makes errors.Is(err, ErrInvalidParam) match.
func (e *InvalidParamError) Is(target error) bool { return target == ErrInvalidParam }

// RedirectError asks the navigator to abandon the current transition and go
// to Path instead. Middleware returns it via Redirect.
type RedirectError struct {
	Path string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s", e.Path)
}

// Redirect returns an error that redirects the current navigation to path.
func Redirect(path string) error {
	return &RedirectError{Path: path}
}
