package deferred

import (
	"log/slog"
	"time"
)

// Option configures an Element.
type Option func(*Element)

// WithName sets the name used in logs, metrics and load errors.
func WithName(name string) Option {
	return func(e *Element) {
		e.name = name
	}
}

// WithPlaceholder sets what Render returns while the element is not Ready.
func WithPlaceholder(placeholder Component) Option {
	return func(e *Element) {
		e.placeholder = placeholder
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Element) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTimeout bounds each loader call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Element) {
		e.timeout = d
	}
}

// WithInstrumentation records metrics and traces for each load.
func WithInstrumentation(in *Instrumentation) Option {
	return func(e *Element) {
		e.instr = in
	}
}
