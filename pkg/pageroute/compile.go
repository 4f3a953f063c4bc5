package pageroute

import "github.com/vango-dev/pageroutes/pkg/deferred"

// RootSegment is the segment of the synthetic top-level node.
const RootSegment = "/"

// RouteNode is a node of the compiled navigation tree.
type RouteNode struct {
	// Index marks the parent's own page. Index nodes have no Segment.
	Index bool

	// Segment is the path segment this node matches: a literal name, a
	// ":param", or "/" for the top-level node.
	Segment string

	// Element renders this node. Nil means the node renders only its
	// children.
	Element *deferred.Element

	// Children are the nested routes in binding order.
	Children []*RouteNode

	// Source is the binding path Element was built from.
	Source string

	// directory is set for nodes compiled from a directory level, whose
	// element is a layout.
	directory bool
}

// IsLayout reports whether Element wraps a directory layout rather than a
// page.
func (n *RouteNode) IsLayout() bool {
	return n.directory && n.Element != nil
}

// IsParam reports whether the node matches a dynamic segment.
func (n *RouteNode) IsParam() bool {
	return len(n.Segment) > len(ParamSigil) && n.Segment[:len(ParamSigil)] == ParamSigil
}

// ParamName returns the parameter name of a dynamic segment.
func (n *RouteNode) ParamName() string {
	if !n.IsParam() {
		return ""
	}
	return n.Segment[len(ParamSigil):]
}

// CompileRoutes builds and compiles bindings in one step.
func CompileRoutes(bindings []Binding, opts ...Option) ([]*RouteNode, error) {
	root, err := Build(bindings, opts...)
	if err != nil {
		return nil, err
	}
	return Compile(root, opts...), nil
}

// Compile turns a config tree into a navigation tree with a single
// top-level node mounted at "/". Only element options apply here.
func Compile(root *ConfigNode, opts ...Option) []*RouteNode {
	o := newOptions(opts)

	top := &RouteNode{Segment: RootSegment, directory: true}
	if root == nil {
		return []*RouteNode{top}
	}
	if root.layout != nil {
		top.Element = o.wrap(*root.layout)
		top.Source = root.layout.Path
	}
	top.Children = compileChildren(root, o)
	return []*RouteNode{top}
}

func compileChildren(n *ConfigNode, o options) []*RouteNode {
	nodes := make([]*RouteNode, 0, len(n.keys))
	for _, key := range n.keys {
		ent := n.entries[key]

		if ent.leaf != nil {
			node := &RouteNode{
				Index:   key == IndexName,
				Element: o.wrap(*ent.leaf),
				Source:  ent.leaf.Path,
			}
			if !node.Index {
				node.Segment = key
			}
			nodes = append(nodes, node)
			continue
		}

		node := &RouteNode{
			Segment:   key,
			Children:  compileChildren(ent.node, o),
			directory: true,
		}
		if layout := ent.node.layout; layout != nil {
			node.Element = o.wrap(*layout)
			node.Source = layout.Path
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func (o options) wrap(b Binding) *deferred.Element {
	opts := make([]deferred.Option, 0, len(o.elementOpts)+1)
	opts = append(opts, deferred.WithName(b.Path))
	opts = append(opts, o.elementOpts...)
	return deferred.Wrap(b.Loader, opts...)
}
