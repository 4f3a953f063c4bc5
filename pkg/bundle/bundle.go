package bundle

import (
	"bytes"
	"errors"
	"io"
)

// OutletMarker marks where a layout bundle renders its child.
const OutletMarker = "<!--outlet-->"

// ErrNotFound is returned when a bundle does not exist in its source.
var ErrNotFound = errors.New("bundle not found")

// ErrTooLarge is returned when a bundle exceeds the source's size limit.
var ErrTooLarge = errors.New("bundle too large")

// Bundle is a loaded page or layout fragment.
type Bundle struct {
	// Key identifies the bundle within its source.
	Key string

	// ContentType is the MIME type reported by the source.
	ContentType string

	// ETag is the source's version tag, if any.
	ETag string

	// Body is the fragment content.
	Body []byte
}

// IsLayout reports whether the bundle contains an outlet marker.
func (b *Bundle) IsLayout() bool {
	return bytes.Contains(b.Body, []byte(OutletMarker))
}

// Render writes the bundle, replacing the first outlet marker with the
// output of outlet. A bundle without a marker writes outlet after its body.
// A nil outlet renders nothing in its place.
func (b *Bundle) Render(w io.Writer, outlet func(io.Writer) error) error {
	i := bytes.Index(b.Body, []byte(OutletMarker))
	if i < 0 {
		if _, err := w.Write(b.Body); err != nil {
			return err
		}
		if outlet != nil {
			return outlet(w)
		}
		return nil
	}

	if _, err := w.Write(b.Body[:i]); err != nil {
		return err
	}
	if outlet != nil {
		if err := outlet(w); err != nil {
			return err
		}
	}
	_, err := w.Write(b.Body[i+len(OutletMarker):])
	return err
}
