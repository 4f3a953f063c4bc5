// Package manifest turns a pages directory into a static list of bindings.
//
// The route compiler never enumerates the file system at run time. Instead
// "pageroutes gen" scans the pages directory once and writes a manifest:
//
//	{
//	  "rootPrefix": "/pages/",
//	  "entries": [
//	    {"path": "/pages/$.html", "ref": "file://$.html"},
//	    {"path": "/pages/user/$[id].html", "ref": "s3://user/id.html"}
//	  ]
//	}
//
// The manifest is stored as JSON, YAML, or a generated Go file. At start-up a
// Resolver maps each ref to a deferred.Loader, and Bindings feeds the result
// to pageroute.CompileRoutes.
package manifest
