package pageroute

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultMarker prefixes layout, index and parameter segments.
	DefaultMarker = "$"

	// IndexName is the reserved key index pages are stored under.
	IndexName = "index"

	// ParamSigil prefixes dynamic segments in the compiled tree.
	ParamSigil = ":"
)

// SegmentKind classifies a path segment.
type SegmentKind int

const (
	SegmentPlain  SegmentKind = iota // Literal route name
	SegmentIndex                     // $index: the parent's own page
	SegmentLayout                    // $: layout for the enclosing directory
	SegmentParam                     // $[name]: dynamic parameter
)

// String returns the kind name.
func (k SegmentKind) String() string {
	switch k {
	case SegmentPlain:
		return "plain"
	case SegmentIndex:
		return "index"
	case SegmentLayout:
		return "layout"
	case SegmentParam:
		return "param"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Segment is one parsed path segment.
type Segment struct {
	// Kind is derived from the segment's lexical form.
	Kind SegmentKind

	// Name is the segment name with the marker stripped. Empty for layouts.
	Name string

	// Raw is the segment as it appeared in the path.
	Raw string
}

// Key returns the config-tree key the segment is stored under.
func (s Segment) Key() string {
	switch s.Kind {
	case SegmentIndex:
		return IndexName
	case SegmentParam:
		return ParamSigil + s.Name
	default:
		return s.Name
	}
}

// Syntax parses segments for a given marker.
type Syntax struct {
	marker  string
	paramRe *regexp.Regexp
	nameRe  *regexp.Regexp
}

// NewSyntax returns the parser for marker. An empty marker uses
// DefaultMarker.
func NewSyntax(marker string) *Syntax {
	if marker == "" {
		marker = DefaultMarker
	}
	m := regexp.QuoteMeta(marker)
	return &Syntax{
		marker:  marker,
		paramRe: regexp.MustCompile(`^` + m + `\[([\w-]+)\]$`),
		nameRe:  regexp.MustCompile(`^` + m + `([\w-]+)$`),
	}
}

var defaultSyntax = NewSyntax(DefaultMarker)

// ParseSegment parses raw with the default "$" marker.
func ParseSegment(raw string) (Segment, error) {
	return defaultSyntax.Parse(raw)
}

// Marker returns the marker this syntax recognizes.
func (s *Syntax) Marker() string {
	return s.marker
}

// Parse classifies raw. Rules are tried in order:
//
//	"$"        → layout
//	"$[name]"  → param
//	"$name"    → plain, or index when name is "index"
//	otherwise  → plain, unchanged
//
// A plain segment starting with ":" is rejected so it cannot be mistaken for
// a compiled parameter.
// Marker-prefixed text matching none of these is a *SegmentSyntaxError.
func (s *Syntax) Parse(raw string) (Segment, error) {
	if raw == s.marker {
		return Segment{Kind: SegmentLayout, Raw: raw}, nil
	}

	if !strings.HasPrefix(raw, s.marker) {
		if strings.HasPrefix(raw, ParamSigil) {
			return Segment{}, &SegmentSyntaxError{
				Segment: raw,
				Reason:  "plain segment must not start with " + strconv.Quote(ParamSigil) + "; use " + s.marker + "[name] for a parameter",
			}
		}
		return Segment{Kind: SegmentPlain, Name: raw, Raw: raw}, nil
	}

	if m := s.paramRe.FindStringSubmatch(raw); m != nil {
		return Segment{Kind: SegmentParam, Name: m[1], Raw: raw}, nil
	}

	if m := s.nameRe.FindStringSubmatch(raw); m != nil {
		kind := SegmentPlain
		if m[1] == IndexName {
			kind = SegmentIndex
		}
		return Segment{Kind: kind, Name: m[1], Raw: raw}, nil
	}

	return Segment{}, &SegmentSyntaxError{Segment: raw, Reason: s.diagnose(raw)}
}

// diagnose explains why a marker-prefixed segment was rejected.
func (s *Syntax) diagnose(raw string) string {
	rest := strings.TrimPrefix(raw, s.marker)
	if strings.HasPrefix(rest, "[") {
		switch {
		case !strings.HasSuffix(rest, "]"):
			return "unbalanced bracket"
		case rest == "[]":
			return "empty parameter name"
		default:
			return "parameter name must match [A-Za-z0-9_-]+"
		}
	}
	if strings.ContainsAny(rest, "[]") {
		return "unbalanced bracket"
	}
	return "name after marker must match [A-Za-z0-9_-]+"
}
