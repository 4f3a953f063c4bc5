// Package deferred wraps component loaders into lazily materialized elements.
//
// An Element starts Pending and does nothing until a host activates it. The
// first activation starts the loader on its own goroutine; activations that
// arrive while the load is in flight join it instead of starting another.
// The element then settles into one of two terminal states:
//
//   - Ready: the loader returned a component, which Render now returns
//   - Failed: the loader returned an error (or panicked), kept as a *LoadError
//
// While Pending or Loading, Render returns the placeholder configured with
// WithPlaceholder (nil by default).
//
// # Activations
//
// Activate returns an *Activation owned by one piece of the active view. The
// host waits on it, registers OnChange callbacks to know when to re-render,
// and calls Deactivate when the view goes away:
//
//	act := el.Activate(ctx)
//	defer act.Deactivate()
//
//	comp, err := act.Wait(ctx)
//	if err != nil {
//	    // *LoadError: render a degraded view for this node only
//	}
//
// If every activation detaches before the load resolves, the load is
// orphaned: its result is discarded when it arrives, no callbacks fire and
// nothing is reported as an error. The element goes back to Pending, so a
// later activation loads again. An activation that arrives while an orphaned
// load is still running adopts it, keeping at most one load in flight.
//
// # Instrumentation
//
// NewInstrumentation registers Prometheus collectors and resolves an
// OpenTelemetry tracer; pass it to Wrap with WithInstrumentation to record
// load counts, durations, discarded loads and a span per loader call.
package deferred
