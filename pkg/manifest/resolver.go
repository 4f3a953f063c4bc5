package manifest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// ErrUnknownScheme is returned for a ref whose scheme has no registered
// factory.
var ErrUnknownScheme = errors.New("unknown ref scheme")

// Factory turns the part of a ref after "scheme://" into a loader.
type Factory func(target string) (deferred.Loader, error)

// Resolver maps refs to loaders by scheme.
//
// A ref is either "scheme://target", dispatched to the factory registered
// for scheme, or a bare name registered with RegisterLoader.
type Resolver struct {
	mu        sync.RWMutex
	factories map[string]Factory
	loaders   map[string]deferred.Loader
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		factories: make(map[string]Factory),
		loaders:   make(map[string]deferred.Loader),
	}
}

// Register sets the factory for scheme, replacing any previous one.
func (r *Resolver) Register(scheme string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[scheme] = f
}

// RegisterLoader binds a bare name to a loader.
func (r *Resolver) RegisterLoader(name string, loader deferred.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = loader
}

// Schemes returns the registered schemes, sorted.
func (r *Resolver) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for s := range r.factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the loader for ref.
func (r *Resolver) Resolve(ref string) (deferred.Loader, error) {
	scheme, target, ok := strings.Cut(ref, "://")

	r.mu.RLock()
	defer r.mu.RUnlock()

	if !ok {
		if l, found := r.loaders[ref]; found {
			return l, nil
		}
		return nil, fmt.Errorf("%w: %q has no scheme and no registered loader", ErrUnknownScheme, ref)
	}

	f, found := r.factories[scheme]
	if !found {
		return nil, fmt.Errorf("%w: %q in %q", ErrUnknownScheme, scheme, ref)
	}
	if target == "" {
		return nil, fmt.Errorf("empty target in ref %q", ref)
	}
	return f(target)
}
