package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/pageroutes/pkg/bundle"
	"github.com/vango-dev/pageroutes/pkg/deferred"
	"github.com/vango-dev/pageroutes/pkg/manifest"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

// As returns the first *RouteError in err's chain.
func As(err error) (*RouteError, bool) {
	var re *RouteError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Classify maps route compiler and loader errors to coded diagnostics.
// Errors that are already coded are returned unchanged; anything unknown
// gets fallback, which may be empty for an uncoded CLI error.
func Classify(err error, fallback string) *RouteError {
	if err == nil {
		return nil
	}
	if re, ok := As(err); ok {
		return re
	}

	var (
		syntaxErr    *pageroute.SegmentSyntaxError
		ambiguousErr *pageroute.AmbiguousNodeError
		pathErr      *pageroute.InvalidPathError
		loadErr      *deferred.LoadError
	)

	switch {
	case stderrors.As(err, &syntaxErr):
		re := New("E100").Wrap(err)
		if syntaxErr.Path != "" {
			re.WithFile(syntaxErr.Path)
		}
		return re.WithSuggestion(fmt.Sprintf("Use %q, %q or %q", "$", "$name", "$[name]"))

	case stderrors.As(err, &ambiguousErr):
		return New("E101").Wrap(err).
			WithFile(ambiguousErr.Path).
			WithSuggestion(fmt.Sprintf("Rename or remove %s or %s", ambiguousErr.Path, ambiguousErr.ConflictsWith))

	case stderrors.As(err, &pathErr):
		return New("E102").Wrap(err).
			WithFile(pathErr.Path).
			WithSuggestion("Check pages.rootPrefix and pages.extensions in pageroutes.json")

	case stderrors.Is(err, manifest.ErrUnknownScheme):
		return New("E131").Wrap(err).
			WithSuggestion("Use file:// or s3:// refs, or register a loader for the scheme")

	case stderrors.Is(err, bundle.ErrNotFound):
		return New("E132").Wrap(err).
			WithSuggestion("Re-run \"pageroutes gen\" or upload the missing bundle")

	case stderrors.As(err, &loadErr):
		return New("E110").Wrap(err)
	}

	if fallback == "" {
		return &RouteError{Category: CategoryCLI, Message: err.Error(), Wrapped: err}
	}
	return New(fallback).Wrap(err)
}
