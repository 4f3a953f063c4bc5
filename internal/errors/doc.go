// Package errors provides the coded diagnostics printed by the pageroutes CLI.
//
// Codes are grouped by stage:
//
//	E100-E109  route compilation (malformed segments, ambiguity, bad paths)
//	E110-E119  deferred loading
//	E120-E129  configuration
//	E130-E139  manifest and bundle handling
//
// Library packages return plain typed errors. The CLI turns them into
// RouteErrors with Classify and prints them with Format:
//
//	if _, err := pageroute.CompileRoutes(bindings); err != nil {
//	    errors.Fprint(os.Stderr, errors.Classify(err, ""))
//	}
package errors
