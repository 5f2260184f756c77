package routepath

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SegmentKind identifies how a pattern segment matches.
type SegmentKind int

const (
	// Static matches one literal path segment.
	Static SegmentKind = iota
	// Param matches any one path segment and binds it to a name (":id").
	Param
	// CatchAll matches the remaining one or more segments ("*rest").
	CatchAll
)

// String returns the kind name.
func (k SegmentKind) String() string {
	switch k {
	case Static:
		return "static"
	case Param:
		return "param"
	case CatchAll:
		return "catch-all"
	default:
		return "unknown"
	}
}

// Segment is one parsed segment of a route pattern.
type Segment struct {
	Kind SegmentKind

	// Value is the literal text for static segments.
	Value string

	// Name is the parameter name for param and catch-all segments.
	Name string

	// Type is the declared parameter type ("string" when not given).
	Type string
}

// Pattern errors.
var (
	ErrInvalidPattern = errors.New("invalid route pattern")
	ErrMissingParam   = errors.New("missing route parameter")
)

// MissingParamError reports a variable segment with no supplied value.
type MissingParamError struct {
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing route parameter %q", e.Param)
}

// Is makes errors.Is(err, ErrMissingParam) match.
func (e *MissingParamError) Is(target error) bool {
	return target == ErrMissingParam
}

// Pattern is a parsed route pattern such as "/events/:id/edit".
type Pattern struct {
	raw      string
	segments []Segment
}

// ParsePattern parses a route pattern.
//
// Supported segment forms:
//
//	events        static segment
//	:id           parameter (string)
//	:id:int       typed parameter (int, uint, uuid, string)
//	*rest         catch-all, last segment only
//
// Trailing slashes are ignored, so "/events/" and "/events" parse the same.
func ParsePattern(raw string) (Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return Pattern{}, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, raw)
	}

	parts := Split(raw)
	segments := make([]Segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		if part == "" {
			return Pattern{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPattern, raw)
		}

		var seg Segment
		switch part[0] {
		case ':':
			name, typ, _ := strings.Cut(part[1:], ":")
			if typ == "" {
				typ = "string"
			}
			seg = Segment{Kind: Param, Name: name, Type: typ}
		case '*':
			if i != len(parts)-1 {
				return Pattern{}, fmt.Errorf("%w: %q catch-all must be the last segment", ErrInvalidPattern, raw)
			}
			seg = Segment{Kind: CatchAll, Name: part[1:], Type: "[]string"}
		default:
			if part == "." || part == ".." {
				return Pattern{}, fmt.Errorf("%w: %q contains a dot segment", ErrInvalidPattern, raw)
			}
			seg = Segment{Kind: Static, Value: part}
		}

		if seg.Kind != Static {
			if !validName(seg.Name) {
				return Pattern{}, fmt.Errorf("%w: %q has an invalid parameter name %q", ErrInvalidPattern, raw, seg.Name)
			}
			if seen[seg.Name] {
				return Pattern{}, fmt.Errorf("%w: %q repeats parameter %q", ErrInvalidPattern, raw, seg.Name)
			}
			seen[seg.Name] = true
		}
		segments = append(segments, seg)
	}

	return Pattern{raw: "/" + strings.Join(parts, "/"), segments: segments}, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(raw string) Pattern {
	p, err := ParsePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// String returns the normalized pattern text.
func (p Pattern) String() string {
	if p.raw == "" {
		return "/"
	}
	return p.raw
}

// Segments returns the parsed segments.
func (p Pattern) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// Params returns the parameter names in order of appearance.
func (p Pattern) Params() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.Kind != Static {
			names = append(names, seg.Name)
		}
	}
	return names
}

// IsStatic reports whether the pattern has no variable segments.
func (p Pattern) IsStatic() bool {
	for _, seg := range p.segments {
		if seg.Kind != Static {
			return false
		}
	}
	return true
}

// Shape returns the pattern with parameter names erased ("/events/:/edit").
// Two patterns with the same shape match exactly the same set of paths.
func (p Pattern) Shape() string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		switch seg.Kind {
		case Static:
			b.WriteString(seg.Value)
		case Param:
			b.WriteByte(':')
		case CatchAll:
			b.WriteByte('*')
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Expand substitutes params into the pattern's variable segments and returns
// the resulting path. Values are path-escaped; catch-all values keep their
// slashes. Extra params are ignored. A variable segment without a non-empty
// value yields a *MissingParamError.
func (p Pattern) Expand(params map[string]string) (string, error) {
	if len(p.segments) == 0 {
		return "/", nil
	}

	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		switch seg.Kind {
		case Static:
			b.WriteString(seg.Value)
		case Param:
			v := params[seg.Name]
			if v == "" {
				return "", &MissingParamError{Param: seg.Name}
			}
			b.WriteString(url.PathEscape(v))
		case CatchAll:
			v := strings.Trim(params[seg.Name], "/")
			if v == "" {
				return "", &MissingParamError{Param: seg.Name}
			}
			parts := strings.Split(v, "/")
			for i, part := range parts {
				parts[i] = url.PathEscape(part)
			}
			b.WriteString(strings.Join(parts, "/"))
		}
	}
	return b.String(), nil
}
