package manifest

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
)

// DefaultVarName is the variable the generator declares.
const DefaultVarName = "Manifest"

// Generator emits a Go source file that declares a manifest as a literal, so
// a binary can compile its route tree without reading the file system.
type Generator struct {
	manifest *Manifest
	pkg      string
	varName  string
	source   string
}

// NewGenerator creates a generator for m in package pkg.
func NewGenerator(m *Manifest, pkg string) *Generator {
	return &Generator{manifest: m, pkg: pkg, varName: DefaultVarName}
}

// WithVarName sets the declared variable name.
func (g *Generator) WithVarName(name string) *Generator {
	g.varName = name
	return g
}

// WithSource records where the manifest came from in the file header.
func (g *Generator) WithSource(source string) *Generator {
	g.source = source
	return g
}

// Generate returns the gofmt'd source. Output is deterministic for a given
// manifest.
func (g *Generator) Generate() ([]byte, error) {
	if !token.IsIdentifier(g.pkg) {
		return nil, fmt.Errorf("invalid package name %q", g.pkg)
	}
	if !token.IsIdentifier(g.varName) || !token.IsExported(g.varName) {
		return nil, fmt.Errorf("invalid variable name %q", g.varName)
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by pageroutes gen. DO NOT EDIT.\n")
	if g.source != "" {
		fmt.Fprintf(&buf, "// Source: %s\n", g.source)
	}
	fmt.Fprintf(&buf, "\npackage %s\n\n", g.pkg)
	buf.WriteString("import \"github.com/vango-dev/pageroutes/pkg/manifest\"\n\n")

	fmt.Fprintf(&buf, "// %s lists the page bindings found at generation time.\n", g.varName)
	fmt.Fprintf(&buf, "var %s = &manifest.Manifest{\n", g.varName)
	if g.manifest.RootPrefix != "" {
		fmt.Fprintf(&buf, "RootPrefix: %q,\n", g.manifest.RootPrefix)
	}
	buf.WriteString("Entries: []manifest.Entry{\n")
	for _, e := range g.manifest.Entries {
		fmt.Fprintf(&buf, "{Path: %q, Ref: %q},\n", e.Path, e.Ref)
	}
	buf.WriteString("},\n}\n")

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w", err)
	}
	return out, nil
}
