package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrNotRegistered is returned by Resolve for names without a builder.
var ErrNotRegistered = errors.New("agent not registered")

// Builder lazily constructs a Descriptor. Builders may perform I/O (prompt
// loading) and resolve other agents through the same registry.
type Builder func(ctx context.Context) (*Descriptor, error)

// ResolveOptions configure a single Resolve call.
type ResolveOptions struct {
	// Refresh rebuilds the descriptor even when a cached one exists.
	Refresh bool
}

// WithRefresh forces a rebuild, replacing the cached descriptor.
func WithRefresh() func(o *ResolveOptions) {
	return func(o *ResolveOptions) { o.Refresh = true }
}

// entry pairs a builder with its cached product and the per-name lock that
// serializes construction.
type entry struct {
	mu      sync.Mutex
	builder Builder
	cached  atomic.Pointer[Descriptor]
}

// Registry is a name -> builder mapping with memoized, concurrency-safe
// construction. Descriptors are built once on first Resolve (the builder for
// a given name runs at most once at a time, and concurrent resolvers share
// the single result) and are replaced only by an explicit refresh.
//
// The registry is an explicit object: construct one per application and pass
// it to whatever needs it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register associates name with builder. Re-registering overwrites the
// builder but keeps any already-cached descriptor until it is invalidated or
// refreshed.
func (r *Registry) Register(name string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok {
		e.mu.Lock()
		e.builder = builder
		e.mu.Unlock()
		return
	}
	e := &entry{builder: builder}
	r.entries[name] = e
}

// Resolve returns the cached descriptor for name, building it on first use.
// The fast path never blocks; cold resolves acquire the per-name lock,
// re-check the cache, and run the builder at most once per build attempt.
// Builder failures propagate to every waiter of that attempt and leave the
// cache empty, so a later Resolve retries.
func (r *Registry) Resolve(ctx context.Context, name string, optFns ...func(o *ResolveOptions)) (*Descriptor, error) {
	var opts ResolveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}

	if !opts.Refresh {
		if d := e.cached.Load(); d != nil {
			return d, nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another resolver may have finished the build while we waited.
	if !opts.Refresh {
		if d := e.cached.Load(); d != nil {
			return d, nil
		}
	}

	d, err := e.builder(ctx)
	if err != nil {
		return nil, fmt.Errorf("build agent %q: %w", name, err)
	}

	e.cached.Store(d)

	return d, nil
}

// Warm eagerly builds descriptors for the given names (all registered names
// when none are given), fanning out concurrently. The first builder error
// fails the warm-up as a whole, but names that finished building stay cached
// for subsequent Resolve calls.
func (r *Registry) Warm(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = r.Names()
	}

	var g errgroup.Group
	for _, name := range names {
		g.Go(func() error {
			_, err := r.Resolve(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Invalidate drops cached descriptors (not builders) for the given names, or
// all names when none are given. The next Resolve rebuilds.
func (r *Registry) Invalidate(names ...string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(names) == 0 {
		for _, e := range r.entries {
			e.cached.Store(nil)
		}
		return
	}

	for _, name := range names {
		if e, ok := r.entries[name]; ok {
			e.cached.Store(nil)
		}
	}
}

// Names returns all registered names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
