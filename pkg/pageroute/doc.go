// Package pageroute compiles flat page bindings into a navigation tree.
//
// The input is a list of bindings, each a rooted file path paired with a
// deferred loader. The output is an ordered tree of RouteNodes that a
// host's resolution engine walks to find the active view for a location.
//
// # File Naming Convention
//
// Paths are stripped of the root prefix (default "/pages/") and the file
// extension, then split on "/". Segments starting with the marker "$" are
// special:
//
//	pages/
//	├── $.tsx            → layout for every page
//	├── $index.tsx       → index page at /
//	├── home/
//	│   ├── $.tsx        → layout for /home/*
//	│   ├── $index.tsx   → index page at /home
//	│   └── $about.tsx   → /home/about
//	└── user/
//	    └── $[id].tsx    → /user/:id
//
// Segments without the marker pass through unchanged, so directories are
// plain path segments.
//
// # Compilation
//
//	nodes, err := pageroute.CompileRoutes(bindings)
//	if err != nil {
//	    // *SegmentSyntaxError, *AmbiguousNodeError or *InvalidPathError
//	}
//
// CompileRoutes returns a single synthetic node mounted at "/". Its element
// is the root layout, if any, and its children follow the order in which
// bindings were supplied. Every element is a *deferred.Element that loads
// nothing until the host activates it.
//
// Compilation is all or nothing: the first structural error aborts it and no
// tree is returned.
package pageroute
