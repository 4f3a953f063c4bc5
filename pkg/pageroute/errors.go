package pageroute

import "fmt"

// SegmentSyntaxError reports malformed marker syntax in a path segment.
type SegmentSyntaxError struct {
	// Path is the binding path containing the segment.
	Path string

	// Segment is the offending segment.
	Segment string

	// Reason explains what is wrong.
	Reason string
}

func (e *SegmentSyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid segment %q: %s", e.Segment, e.Reason)
	}
	return fmt.Sprintf("invalid segment %q in %s: %s", e.Segment, e.Path, e.Reason)
}

// AmbiguousNodeError reports two bindings claiming the same key.
// Example: home.tsx and home/$index.tsx both want the key "home".
type AmbiguousNodeError struct {
	// Key is the contested key within its parent.
	Key string

	// Path is the binding being inserted.
	Path string

	// ConflictsWith is the binding path that already owns the key.
	ConflictsWith string
}

func (e *AmbiguousNodeError) Error() string {
	return fmt.Sprintf("ambiguous route node %q: %s conflicts with %s", e.Key, e.Path, e.ConflictsWith)
}

// InvalidPathError reports a binding path that cannot be split into
// segments.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid binding path %q: %s", e.Path, e.Reason)
}
