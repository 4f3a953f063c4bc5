package pageroute

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// RouteKind distinguishes pages from layouts in a flattened tree.
type RouteKind string

const (
	KindPage   RouteKind = "page"
	KindLayout RouteKind = "layout"
)

// FlatRoute is one element of a compiled tree with its resolved path.
type FlatRoute struct {
	// Path is the URL pattern, e.g. "/user/:id".
	Path string

	// Kind is page for leaves and layout for directory elements.
	Kind RouteKind

	// Source is the binding path.
	Source string

	// Element is the node's deferred element.
	Element *deferred.Element
}

// SkipChildren can be returned from a WalkFunc to skip a node's children.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node with its resolved path and the chain of
// ancestors, root first.
type WalkFunc func(node *RouteNode, path string, ancestors []*RouteNode) error

// Walk visits nodes depth first in order.
func Walk(nodes []*RouteNode, fn WalkFunc) error {
	return walk(nodes, "", nil, fn)
}

func walk(nodes []*RouteNode, parent string, ancestors []*RouteNode, fn WalkFunc) error {
	for _, n := range nodes {
		path := JoinPath(parent, n)
		if err := fn(n, path, ancestors); err != nil {
			if err == SkipChildren {
				continue
			}
			return err
		}
		if len(n.Children) == 0 {
			continue
		}
		chain := make([]*RouteNode, len(ancestors)+1)
		copy(chain, ancestors)
		chain[len(ancestors)] = n
		if err := walk(n.Children, path, chain, fn); err != nil {
			return err
		}
	}
	return nil
}

// JoinPath returns the resolved path of n under parent.
func JoinPath(parent string, n *RouteNode) string {
	switch {
	case n.Index:
		if parent == "" {
			return RootSegment
		}
		return parent
	case n.Segment == RootSegment || parent == "":
		return "/" + strings.TrimPrefix(n.Segment, "/")
	case parent == RootSegment:
		return "/" + n.Segment
	default:
		return parent + "/" + n.Segment
	}
}

// Flatten lists every element in the tree with its resolved path. Nodes
// without an element are skipped, so each binding appears exactly once.
func Flatten(nodes []*RouteNode) []FlatRoute {
	var out []FlatRoute
	_ = Walk(nodes, func(n *RouteNode, path string, _ []*RouteNode) error {
		if n.Element == nil {
			return nil
		}
		kind := KindPage
		if n.IsLayout() {
			kind = KindLayout
		}
		out = append(out, FlatRoute{
			Path:    path,
			Kind:    kind,
			Source:  n.Source,
			Element: n.Element,
		})
		return nil
	})
	return out
}

// Print writes an indented rendering of the tree.
//
//	/
//	├── (index) /pages/$index.tsx
//	├── home [/pages/home/$.tsx]
//	│   └── (index) /pages/home/$index.tsx
//	└── user
//	    └── :id /pages/user/$[id].tsx
func Print(w io.Writer, nodes []*RouteNode) error {
	for _, n := range nodes {
		if _, err := fmt.Fprintln(w, describe(n)); err != nil {
			return err
		}
		if err := printChildren(w, n.Children, ""); err != nil {
			return err
		}
	}
	return nil
}

func printChildren(w io.Writer, nodes []*RouteNode, indent string) error {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		if _, err := fmt.Fprintln(w, indent+branch+describe(n)); err != nil {
			return err
		}
		if err := printChildren(w, n.Children, indent+next); err != nil {
			return err
		}
	}
	return nil
}

func describe(n *RouteNode) string {
	name := n.Segment
	if n.Index {
		name = "(index)"
	}
	switch {
	case n.Element == nil:
		return name
	case !n.directory:
		return name + " " + n.Source
	default:
		return name + " [" + n.Source + "]"
	}
}
