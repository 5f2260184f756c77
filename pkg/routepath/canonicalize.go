// Package routepath normalizes URL paths and parses route patterns.
//
// Every path the resolver sees goes through CanonicalizePath first, so
// "/events/", "/events" and "//events/." all address the same route.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Result contains the result of path canonicalization.
type Result struct {
	// Path is the canonicalized path (without query string).
	Path string

	// Query is the raw query string (without leading "?").
	Query string

	// Changed reports whether canonicalization modified the path.
	Changed bool
}

// Path canonicalization errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in non-catch-all segment")
)

// CanonicalizePath normalizes a URL path.
//
// The following transformations are applied:
//   - Remove trailing slash (except for root "/")
//   - Collapse multiple slashes (/events//42 → /events/42)
//   - Remove "." segments (/events/./42 → /events/42)
//   - Resolve ".." segments (/events/42/.. → /events)
//
// Inputs containing a backslash, a NUL byte, an invalid percent escape, or a
// ".." that would climb above root are rejected.
//
// A query string or fragment is split off; the query is returned in Result.Query
// and the fragment is dropped.
func CanonicalizePath(input string) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	input, _, _ = strings.Cut(input, "#")
	path, query, _ := strings.Cut(input, "?")

	if strings.Contains(path, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Result{}, err
		}
	}

	original := path

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	path = "/" + strings.Join(out, "/")

	return Result{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// validatePercentEscapes checks that every '%' starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Split returns the segments of a canonical path. The root path has no segments.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// DecodeSegment decodes a single path segment.
// For non-catch-all values a decoded "/" (from %2F) is rejected, since it would
// let one segment smuggle in another.
func DecodeSegment(segment string, isCatchAll bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !isCatchAll && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// ValidateNavPath canonicalizes a path supplied for navigation and rejects
// anything that is not a root-relative path, so navigation can never leave the
// application (no "http://", "https://" or protocol-relative "//" targets).
// The returned string keeps the query, if any.
func ValidateNavPath(path string) (string, error) {
	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//") ||
		!strings.HasPrefix(path, "/") {
		return "", ErrInvalidPath
	}

	res, err := CanonicalizePath(path)
	if err != nil {
		return "", err
	}
	if res.Query != "" {
		return res.Path + "?" + res.Query, nil
	}
	return res.Path, nil
}

// NormalizeBase turns a configured base path ("", "/", "app", "/app/") into
// its canonical form: "/" or "/app".
func NormalizeBase(base string) string {
	base = strings.Trim(base, "/")
	if base == "" {
		return "/"
	}
	return "/" + base
}

// StripBase removes base from the front of path. It reports false when the
// path lies outside base. base must already be normalized.
func StripBase(base, path string) (string, bool) {
	if base == "/" || base == "" {
		return path, true
	}
	if path == base {
		return "/", true
	}
	if rest, ok := strings.CutPrefix(path, base+"/"); ok {
		return "/" + rest, true
	}
	if rest, ok := strings.CutPrefix(path, base+"?"); ok {
		return "/?" + rest, true
	}
	return "", false
}

// JoinBase prefixes path with base. base must already be normalized.
func JoinBase(base, path string) string {
	if base == "/" || base == "" {
		return path
	}
	if path == "/" {
		return base
	}
	if strings.HasPrefix(path, "/?") {
		return base + path[1:]
	}
	return base + path
}
