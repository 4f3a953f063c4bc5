package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

// Entry binds one rooted page path to a loader reference.
type Entry struct {
	// Path is the rooted page path, e.g. "/pages/user/$[id].html".
	Path string `json:"path" yaml:"path"`

	// Ref names where the component comes from, e.g. "s3://user/id.html".
	Ref string `json:"ref" yaml:"ref"`
}

// Manifest is the static list of page bindings produced at build time.
type Manifest struct {
	// RootPrefix is the prefix every Path starts with.
	RootPrefix string `json:"rootPrefix,omitempty" yaml:"rootPrefix,omitempty"`

	// Entries are kept in the order they were scanned or written.
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Format is a manifest serialization format.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFor picks a format from a file extension. Unknown extensions are
// treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a manifest.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads a manifest file, choosing the format by extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data, FormatFor(path))
}

// Validate checks that every entry has a path and a ref.
func (m *Manifest) Validate() error {
	for i, e := range m.Entries {
		if e.Path == "" {
			return fmt.Errorf("manifest entry %d: path is required", i)
		}
		if e.Ref == "" {
			return fmt.Errorf("manifest entry %d (%s): ref is required", i, e.Path)
		}
	}
	return nil
}

// Write encodes the manifest to w.
func (m *Manifest) Write(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
}

// Save writes the manifest to path, choosing the format by extension.
func (m *Manifest) Save(path string) error {
	var buf bytes.Buffer
	if err := m.Write(&buf, FormatFor(path)); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Bindings resolves every entry to a loader.
func (m *Manifest) Bindings(r *Resolver) ([]pageroute.Binding, error) {
	bindings := make([]pageroute.Binding, 0, len(m.Entries))
	for _, e := range m.Entries {
		loader, err := r.Resolve(e.Ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Path, err)
		}
		bindings = append(bindings, pageroute.Binding{Path: e.Path, Loader: loader})
	}
	return bindings, nil
}
