package deferred

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Element is a lazily materialized component.
// It is safe for concurrent use.
type Element struct {
	loader      Loader
	name        string
	placeholder Component
	timeout     time.Duration
	logger      *slog.Logger
	instr       *Instrumentation

	mu        sync.Mutex
	state     State
	component Component
	err       error

	// inflight is set while a loader goroutine is running, including an
	// orphaned one whose result will be discarded.
	inflight bool
	loadDone chan struct{}

	active      map[*Activation]struct{}
	subscribers map[uint64]func(State)
	nextSub     uint64

	// seq numbers state changes. It is guarded by mu.
	seq uint64

	// Subscriber delivery. Guarded by notifyMu, which is never held with mu.
	notifyMu   sync.Mutex
	published  uint64
	latest     State
	delivering bool
}

// Wrap creates a Pending element around loader. Nothing is loaded until the
// element is activated.
func Wrap(loader Loader, opts ...Option) *Element {
	e := &Element{
		loader:      loader,
		logger:      slog.Default(),
		active:      make(map[*Activation]struct{}),
		subscribers: make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the element name.
func (e *Element) Name() string {
	return e.name
}

// State returns the current state.
func (e *Element) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Component returns the resolved component, or nil unless Ready.
func (e *Element) Component() Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Ready {
		return nil
	}
	return e.component
}

// Err returns the *LoadError once Failed, nil otherwise.
func (e *Element) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Render returns the component when Ready and the placeholder otherwise.
func (e *Element) Render() Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Ready {
		return e.component
	}
	return e.placeholder
}

// Placeholder returns the configured placeholder.
func (e *Element) Placeholder() Component {
	return e.placeholder
}

// Subscribe registers fn to be called after every state change.
// The returned function removes the subscription.
func (e *Element) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// Activate marks the element as part of the active view and starts the load
// if none is running. The activation is detached when ctx is done or when
// Deactivate is called, whichever comes first.
func (e *Element) Activate(ctx context.Context) *Activation {
	a := &Activation{
		element: e,
		done:    make(chan struct{}),
	}

	e.mu.Lock()
	e.active[a] = struct{}{}
	changed := false
	switch e.state {
	case Ready, Failed:
		a.closeLocked()
	case Pending:
		if !e.inflight {
			e.startLocked()
		} else {
			e.logger.Debug("adopting orphaned load", "element", e.name)
		}
		e.state = Loading
		changed = true
	}
	seq := e.changedLocked()
	e.mu.Unlock()

	if changed {
		e.publish(seq, Loading)
	}

	if ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, a.Deactivate)
		e.mu.Lock()
		if a.detached {
			e.mu.Unlock()
			stop()
		} else {
			a.stop = stop
			e.mu.Unlock()
		}
	}
	return a
}

// startLocked launches the loader goroutine. e.mu must be held.
func (e *Element) startLocked() {
	e.inflight = true
	e.loadDone = make(chan struct{})
	go e.load(e.loadDone)
}

func (e *Element) load(done chan struct{}) {
	defer close(done)

	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Debug("loading element", "element", e.name)
	start := time.Now()
	ctx, finish := e.instr.begin(ctx, e.name)
	comp, err := e.call(ctx)
	elapsed := time.Since(start)

	discarded := e.resolve(comp, err)
	finish(err, discarded, elapsed)
}

// call runs the loader, turning a panic into an error.
func (e *Element) call(ctx context.Context) (comp Component, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()
	if e.loader == nil {
		return nil, fmt.Errorf("no loader")
	}
	return e.loader(ctx)
}

// resolve applies a load result, or discards it if every activation left.
// It reports whether the result was discarded.
func (e *Element) resolve(comp Component, err error) bool {
	e.mu.Lock()
	e.inflight = false

	if len(e.active) == 0 {
		e.state = Pending
		e.mu.Unlock()
		e.logger.Debug("discarded orphaned load", "element", e.name)
		return true
	}

	if err != nil {
		e.state = Failed
		e.err = &LoadError{Name: e.name, Err: err}
	} else {
		e.state = Ready
		e.component = comp
	}
	state := e.state

	acts := make([]*Activation, 0, len(e.active))
	for a := range e.active {
		a.closeLocked()
		acts = append(acts, a)
	}
	seq := e.changedLocked()
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("element load failed", "element", e.name, "error", err)
	} else {
		e.logger.Debug("element ready", "element", e.name)
	}

	for _, a := range acts {
		a.fire(state)
	}
	e.publish(seq, state)
	return false
}

// detach removes a from the active set. When the last activation leaves an
// in-flight load, the element returns to Pending and the load is orphaned.
func (e *Element) detach(a *Activation) {
	e.mu.Lock()
	if _, ok := e.active[a]; !ok {
		e.mu.Unlock()
		return
	}
	delete(e.active, a)
	a.detached = true
	a.callbacks = nil
	a.closeLocked()
	stop := a.stop
	a.stop = nil

	changed := false
	if len(e.active) == 0 && e.state == Loading {
		e.state = Pending
		changed = true
	}
	seq := e.changedLocked()
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
	if changed {
		e.publish(seq, Pending)
	}
}

// changedLocked returns a new sequence number for a state change. e.mu
// must be held.
func (e *Element) changedLocked() uint64 {
	e.seq++
	return e.seq
}

// publish delivers state s, numbered seq, to subscribers. Deliveries are
// serialized and a state older than one already published is dropped, so
// subscribers always end on the element's latest state. A publish made from
// inside a subscriber is delivered after the current round.
func (e *Element) publish(seq uint64, s State) {
	e.notifyMu.Lock()
	if seq <= e.published {
		e.notifyMu.Unlock()
		return
	}
	e.published = seq
	e.latest = s
	if e.delivering {
		e.notifyMu.Unlock()
		return
	}
	e.delivering = true

	for {
		seq, s := e.published, e.latest
		e.notifyMu.Unlock()

		e.mu.Lock()
		subs := e.subscribersLocked()
		e.mu.Unlock()
		notify(subs, s)

		e.notifyMu.Lock()
		if e.published == seq {
			e.delivering = false
			e.notifyMu.Unlock()
			return
		}
	}
}

// subscribersLocked snapshots the subscriber list. e.mu must be held.
func (e *Element) subscribersLocked() []func(State) {
	if len(e.subscribers) == 0 {
		return nil
	}
	subs := make([]func(State), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(State), s State) {
	for _, fn := range subs {
		fn(s)
	}
}
