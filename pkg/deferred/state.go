package deferred

import (
	"context"
	"errors"
	"fmt"
)

// Component is the materialized value a loader produces.
// Hosts decide what concrete types they accept.
type Component any

// Loader resolves a component. It is called at most once per load and may
// block; ctx carries the element's load timeout, if any.
type Loader func(ctx context.Context) (Component, error)

// State represents the lifecycle state of an Element.
type State int

const (
	Pending State = iota // No load in flight, nothing resolved
	Loading              // Load in flight for at least one activation
	Ready                // Component resolved (terminal)
	Failed               // Load failed (terminal)
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s is Ready or Failed.
func (s State) Terminal() bool {
	return s == Ready || s == Failed
}

// ErrDeactivated is returned by Activation.Wait and Activation.Result once
// the activation has been detached. It does not indicate a load failure.
var ErrDeactivated = errors.New("deferred: activation deactivated")

// ErrNotSettled is returned by Activation.Result while the load is still
// in flight.
var ErrNotSettled = errors.New("deferred: element not settled")

// LoadError records a failed load. It stays local to the element that
// produced it.
type LoadError struct {
	// Name identifies the element, usually the source path of its binding.
	Name string

	// Err is the loader's error.
	Err error
}

func (e *LoadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("deferred: load failed: %v", e.Err)
	}
	return fmt.Sprintf("deferred: loading %s: %v", e.Name, e.Err)
}

// Unwrap returns the loader's error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
