package pageroute

import (
	"strings"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// Binding pairs a rooted file path with the loader for its component.
type Binding struct {
	// Path is the slash-delimited source path (e.g. "/pages/home/$index.tsx").
	Path string

	// Loader materializes the component.
	Loader deferred.Loader
}

// ConfigNode is one directory level of the nested config tree. Entries keep
// their insertion order.
type ConfigNode struct {
	keys    []string
	entries map[string]*configEntry
	layout  *Binding

	// source is the binding path that first created this node.
	source string
}

// configEntry holds exactly one of leaf or node.
type configEntry struct {
	leaf *Binding
	node *ConfigNode
}

func newConfigNode(source string) *ConfigNode {
	return &ConfigNode{
		entries: make(map[string]*configEntry),
		source:  source,
	}
}

// Keys returns the entry keys in insertion order.
func (n *ConfigNode) Keys() []string {
	return append([]string(nil), n.keys...)
}

// Len returns the number of entries, not counting the layout.
func (n *ConfigNode) Len() int {
	return len(n.keys)
}

// Leaf returns the leaf binding stored under key.
func (n *ConfigNode) Leaf(key string) (Binding, bool) {
	ent, ok := n.entries[key]
	if !ok || ent.leaf == nil {
		return Binding{}, false
	}
	return *ent.leaf, true
}

// Child returns the interior node stored under key.
func (n *ConfigNode) Child(key string) (*ConfigNode, bool) {
	ent, ok := n.entries[key]
	if !ok || ent.node == nil {
		return nil, false
	}
	return ent.node, true
}

// Layout returns the layout binding attached to this directory.
func (n *ConfigNode) Layout() (Binding, bool) {
	if n.layout == nil {
		return Binding{}, false
	}
	return *n.layout, true
}

func (n *ConfigNode) put(key string, ent *configEntry) {
	n.keys = append(n.keys, key)
	n.entries[key] = ent
}

// Builder folds bindings into a ConfigNode tree.
type Builder struct {
	opts   options
	syntax *Syntax
	root   *ConfigNode
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	o := newOptions(opts)
	return &Builder{
		opts:   o,
		syntax: NewSyntax(o.marker),
		root:   newConfigNode(""),
	}
}

// Build folds bindings into a config tree. It stops at the first error and
// returns no tree.
func Build(bindings []Binding, opts ...Option) (*ConfigNode, error) {
	b := NewBuilder(opts...)
	for _, binding := range bindings {
		if err := b.Add(binding); err != nil {
			return nil, err
		}
	}
	return b.Root(), nil
}

// Root returns the root of the tree built so far.
func (b *Builder) Root() *ConfigNode {
	return b.root
}

// Add inserts one binding. On error the tree is left unchanged.
func (b *Builder) Add(binding Binding) error {
	segments, err := b.Segments(binding.Path)
	if err != nil {
		return err
	}
	if err := b.check(binding.Path, segments); err != nil {
		return err
	}

	node := b.root
	dirs, last := segments[:len(segments)-1], segments[len(segments)-1]
	for _, seg := range dirs {
		key := seg.Key()
		if child, ok := node.Child(key); ok {
			node = child
			continue
		}
		child := newConfigNode(binding.Path)
		node.put(key, &configEntry{node: child})
		node = child
	}

	bound := binding
	if last.Kind == SegmentLayout {
		node.layout = &bound
	} else {
		node.put(last.Key(), &configEntry{leaf: &bound})
	}
	return nil
}

// check walks the existing tree and reports the first key collision
// without modifying anything.
func (b *Builder) check(path string, segments []Segment) error {
	node := b.root
	dirs, last := segments[:len(segments)-1], segments[len(segments)-1]

	for _, seg := range dirs {
		ent, ok := node.entries[seg.Key()]
		if !ok {
			return nil
		}
		if ent.leaf != nil {
			return &AmbiguousNodeError{Key: seg.Key(), Path: path, ConflictsWith: ent.leaf.Path}
		}
		node = ent.node
	}

	if last.Kind == SegmentLayout {
		if node.layout != nil {
			return &AmbiguousNodeError{Key: b.syntax.Marker(), Path: path, ConflictsWith: node.layout.Path}
		}
		return nil
	}

	ent, ok := node.entries[last.Key()]
	if !ok {
		return nil
	}
	if ent.leaf != nil {
		return &AmbiguousNodeError{Key: last.Key(), Path: path, ConflictsWith: ent.leaf.Path}
	}
	return &AmbiguousNodeError{Key: last.Key(), Path: path, ConflictsWith: ent.node.source}
}

// Segments strips the root prefix and extension from path and parses what
// remains.
func (b *Builder) Segments(path string) ([]Segment, error) {
	if !strings.HasPrefix(path, b.opts.rootPrefix) {
		return nil, &InvalidPathError{Path: path, Reason: "outside root " + b.opts.rootPrefix}
	}
	rel := strings.TrimPrefix(path, b.opts.rootPrefix)

	rel, err := b.stripExtension(path, rel)
	if err != nil {
		return nil, err
	}
	if rel == "" {
		return nil, &InvalidPathError{Path: path, Reason: "no segments after root"}
	}

	parts := strings.Split(rel, "/")
	segments := make([]Segment, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, &InvalidPathError{Path: path, Reason: "empty segment"}
		}
		seg, err := b.syntax.Parse(part)
		if err != nil {
			if se, ok := err.(*SegmentSyntaxError); ok {
				se.Path = path
			}
			return nil, err
		}
		isLast := i == len(parts)-1
		if !isLast && (seg.Kind == SegmentLayout || seg.Kind == SegmentIndex) {
			return nil, &SegmentSyntaxError{
				Path:    path,
				Segment: part,
				Reason:  seg.Kind.String() + " marker is only valid as the file name",
			}
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func (b *Builder) stripExtension(path, rel string) (string, error) {
	if len(b.opts.extensions) > 0 {
		for _, ext := range b.opts.extensions {
			if strings.HasSuffix(rel, ext) {
				return strings.TrimSuffix(rel, ext), nil
			}
		}
		return "", &InvalidPathError{Path: path, Reason: "unsupported extension"}
	}

	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		return rel[:len(rel)-len(base)+i], nil
	}
	return rel, nil
}
