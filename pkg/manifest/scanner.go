package manifest

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

// ScanOptions configures Scan.
type ScanOptions struct {
	// RootPrefix is prepended to each file's relative path.
	// Default: pageroute.DefaultRootPrefix.
	RootPrefix string

	// Marker is the naming-convention marker. Default: pageroute.DefaultMarker.
	Marker string

	// Extensions limits the files collected. Empty means any extension.
	Extensions []string

	// All collects every matching file, not only marker-named ones.
	All bool

	// Scheme is the ref scheme given to each entry. Default: "file".
	Scheme string
}

// Scan walks fsys and returns a manifest of its page files.
//
// Without All, only files whose base name starts with the marker are
// collected. Hidden entries (names starting with ".") are skipped. Entries
// are sorted by path so the output is deterministic.
func Scan(fsys fs.FS, opts ScanOptions) (*Manifest, error) {
	if opts.RootPrefix == "" {
		opts.RootPrefix = pageroute.DefaultRootPrefix
	}
	if !strings.HasSuffix(opts.RootPrefix, "/") {
		opts.RootPrefix += "/"
	}
	if opts.Marker == "" {
		opts.Marker = pageroute.DefaultMarker
	}
	if opts.Scheme == "" {
		opts.Scheme = "file"
	}

	m := &Manifest{RootPrefix: opts.RootPrefix}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if p != "." && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if !opts.All && !strings.HasPrefix(name, opts.Marker) {
			return nil
		}
		if !hasExtension(name, opts.Extensions) {
			return nil
		}

		m.Entries = append(m.Entries, Entry{
			Path: opts.RootPrefix + p,
			Ref:  opts.Scheme + "://" + p,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})
	return m, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := path.Ext(name)
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}
	return false
}
