package pageroute

import (
	"strings"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// DefaultRootPrefix is stripped from every binding path.
const DefaultRootPrefix = "/pages/"

// Option configures building and compilation.
type Option func(*options)

type options struct {
	rootPrefix  string
	extensions  []string
	marker      string
	elementOpts []deferred.Option
}

func newOptions(opts []Option) options {
	o := options{
		rootPrefix: DefaultRootPrefix,
		marker:     DefaultMarker,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRootPrefix sets the prefix stripped from binding paths.
// A trailing slash is added when missing.
func WithRootPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" && prefix[len(prefix)-1] != '/' {
			prefix += "/"
		}
		o.rootPrefix = prefix
	}
}

// WithExtensions restricts the accepted file extensions (e.g. ".tsx").
// A missing leading dot is added. Without it, any extension on the last
// segment is stripped.
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		o.extensions = o.extensions[:0:0]
		for _, ext := range exts {
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			o.extensions = append(o.extensions, ext)
		}
	}
}

// WithMarker sets the special-segment marker (default "$").
func WithMarker(marker string) Option {
	return func(o *options) {
		if marker != "" {
			o.marker = marker
		}
	}
}

// WithElementOptions passes options to every deferred.Wrap call made during
// compilation.
func WithElementOptions(opts ...deferred.Option) Option {
	return func(o *options) {
		o.elementOpts = append(o.elementOpts, opts...)
	}
}
