package deferred

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Activation is one view's hold on an Element.
// Fields other than element are guarded by element.mu.
type Activation struct {
	element   *Element
	done      chan struct{}
	closed    bool
	detached  bool
	callbacks []func(State)
	stop      func() bool
}

// Element returns the activated element.
func (a *Activation) Element() *Element {
	return a.element
}

// Done is closed once the element settles or the activation is detached.
func (a *Activation) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the element settles, the activation is detached, or ctx
// is done. A failed load is returned as a *LoadError.
func (a *Activation) Wait(ctx context.Context) (Component, error) {
	select {
	case <-a.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return a.Result()
}

// Result returns the settled outcome without blocking.
func (a *Activation) Result() (Component, error) {
	e := a.element
	e.mu.Lock()
	defer e.mu.Unlock()

	if a.detached {
		return nil, ErrDeactivated
	}
	switch e.state {
	case Ready:
		return e.component, nil
	case Failed:
		return nil, e.err
	default:
		return nil, ErrNotSettled
	}
}

// OnChange registers fn to run when the element settles. If it already has,
// fn runs immediately with the settled state. Callbacks never run after
// Deactivate.
func (a *Activation) OnChange(fn func(State)) {
	e := a.element
	e.mu.Lock()
	if a.detached {
		e.mu.Unlock()
		return
	}
	if a.closed {
		s := e.state
		e.mu.Unlock()
		fn(s)
		return
	}
	a.callbacks = append(a.callbacks, fn)
	e.mu.Unlock()
}

// Deactivate detaches the activation. It is safe to call more than once.
func (a *Activation) Deactivate() {
	a.element.detach(a)
}

// closeLocked closes done once. element.mu must be held.
func (a *Activation) closeLocked() {
	if !a.closed {
		a.closed = true
		close(a.done)
	}
}

func (a *Activation) fire(s State) {
	e := a.element
	e.mu.Lock()
	if a.detached {
		e.mu.Unlock()
		return
	}
	callbacks := a.callbacks
	e.mu.Unlock()

	for _, fn := range callbacks {
		fn(s)
	}
}

// Preload activates elements concurrently and waits for all of them to
// settle. It returns the first load error. Every activation is released
// before returning; a load still running at that point is orphaned.
func Preload(ctx context.Context, elements ...*Element) error {
	g, gctx := errgroup.WithContext(ctx)

	acts := make([]*Activation, 0, len(elements))
	defer func() {
		for _, a := range acts {
			a.Deactivate()
		}
	}()

	for _, el := range elements {
		if el == nil {
			continue
		}
		a := el.Activate(ctx)
		acts = append(acts, a)
		g.Go(func() error {
			_, err := a.Wait(gctx)
			return err
		})
	}

	return g.Wait()
}
