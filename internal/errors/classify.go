package errors

import (
	"errors"

	"github.com/vango-dev/eventroutes/pkg/authmw"
	"github.com/vango-dev/eventroutes/pkg/router"
)

// classes maps router and guard sentinels to codes, checked in order.
var classes = []struct {
	target error
	code   string
}{
	{router.ErrNotFound, "R001"},
	{router.ErrMissingParam, "R002"},
	{router.ErrUnknownRoute, "R003"},
	{router.ErrInvalidParam, "R004"},
	{router.ErrInvalidPath, "R005"},
	{router.ErrBackslashInPath, "R005"},
	{router.ErrNullByteInPath, "R005"},
	{router.ErrInvalidPercentEscape, "R005"},
	{router.ErrPathEscapesRoot, "R005"},
	{router.ErrEncodedSlashInSegment, "R005"},
	{router.ErrNoHistory, "R006"},
	{router.ErrRedirectLoop, "R007"},
	{router.ErrAborted, "R008"},
	{authmw.ErrUnauthorized, "R009"},
	{authmw.ErrForbidden, "R010"},
	{router.ErrInvalidRoute, "R021"},
	{router.ErrDuplicateRoute, "R021"},
}

// Code returns the registered code for err, or "" if err is not a known
// routing failure.
func Code(err error) string {
	var re *RouteError
	if errors.As(err, &re) && re.Code != "" {
		return re.Code
	}
	for _, c := range classes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return ""
}

// Classify converts err into a RouteError. Known routing failures get their
// registered code; anything else becomes an uncoded navigation error that
// wraps err.
func Classify(err error) *RouteError {
	if err == nil {
		return nil
	}
	var re *RouteError
	if errors.As(err, &re) {
		return re
	}
	if code := Code(err); code != "" {
		return New(code).Wrap(err)
	}
	return &RouteError{
		Category: CategoryNavigation,
		Message:  "Navigation failed",
		Wrapped:  err,
	}
}
