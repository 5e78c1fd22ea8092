package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticBuilder(name string, builds *atomic.Int32) Builder {
	return func(ctx context.Context) (*Descriptor, error) {
		if builds != nil {
			builds.Add(1)
		}
		return &Descriptor{Name: name, Model: "gpt-5-mini"}, nil
	}
}

func TestRegistryResolveNotRegistered(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.ErrorContains(t, err, "ghost")
}

func TestRegistryResolveCaches(t *testing.T) {
	var builds atomic.Int32
	r := NewRegistry()
	r.Register("chat", staticBuilder("chat", &builds))

	first, err := r.Resolve(context.Background(), "chat")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "chat")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), builds.Load())
}

func TestRegistryResolveConcurrentBuildsOnce(t *testing.T) {
	var builds atomic.Int32
	r := NewRegistry()
	r.Register("chat", staticBuilder("chat", &builds))

	const goroutines = 50
	results := make([]*Descriptor, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := r.Resolve(context.Background(), "chat")
			require.NoError(t, err)
			results[i] = d
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load(), "builder must run exactly once")
	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i], "all resolvers must see the same instance")
	}
}

func TestRegistryResolveBuilderError(t *testing.T) {
	var builds atomic.Int32
	r := NewRegistry()
	r.Register("flaky", func(ctx context.Context) (*Descriptor, error) {
		if builds.Add(1) == 1 {
			return nil, fmt.Errorf("transient failure")
		}
		return &Descriptor{Name: "flaky"}, nil
	})

	_, err := r.Resolve(context.Background(), "flaky")
	assert.ErrorContains(t, err, "transient failure")

	// Errors are not cached: the next resolve retries the builder.
	d, err := r.Resolve(context.Background(), "flaky")
	require.NoError(t, err)
	assert.Equal(t, "flaky", d.Name)
}

func TestRegistryResolveWithRefresh(t *testing.T) {
	var builds atomic.Int32
	r := NewRegistry()
	r.Register("chat", staticBuilder("chat", &builds))

	first, err := r.Resolve(context.Background(), "chat")
	require.NoError(t, err)
	refreshed, err := r.Resolve(context.Background(), "chat", WithRefresh())
	require.NoError(t, err)

	assert.NotSame(t, first, refreshed)
	assert.Equal(t, int32(2), builds.Load())
}

func TestRegistryInvalidate(t *testing.T) {
	var builds atomic.Int32
	r := NewRegistry()
	r.Register("chat", staticBuilder("chat", &builds))

	first, err := r.Resolve(context.Background(), "chat")
	require.NoError(t, err)

	r.Invalidate("chat")

	second, err := r.Resolve(context.Background(), "chat")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), builds.Load())
}

func TestRegistryInvalidateAll(t *testing.T) {
	var a, b atomic.Int32
	r := NewRegistry()
	r.Register("a", staticBuilder("a", &a))
	r.Register("b", staticBuilder("b", &b))

	_, err := r.Resolve(context.Background(), "a")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "b")
	require.NoError(t, err)

	r.Invalidate()

	_, err = r.Resolve(context.Background(), "a")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, int32(2), a.Load())
	assert.Equal(t, int32(2), b.Load())
}

func TestRegistryReregisterKeepsCache(t *testing.T) {
	r := NewRegistry()
	r.Register("chat", staticBuilder("chat", nil))

	cached, err := r.Resolve(context.Background(), "chat")
	require.NoError(t, err)

	// Overwriting the builder leaves the cached instance in place until an
	// explicit refresh.
	r.Register("chat", func(ctx context.Context) (*Descriptor, error) {
		return &Descriptor{Name: "chat-v2"}, nil
	})

	still, err := r.Resolve(context.Background(), "chat")
	require.NoError(t, err)
	assert.Same(t, cached, still)

	rebuilt, err := r.Resolve(context.Background(), "chat", WithRefresh())
	require.NoError(t, err)
	assert.Equal(t, "chat-v2", rebuilt.Name)
}

func TestRegistryWarm(t *testing.T) {
	var a, b atomic.Int32
	r := NewRegistry()
	r.Register("a", staticBuilder("a", &a))
	r.Register("b", staticBuilder("b", &b))

	require.NoError(t, r.Warm(context.Background()))
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())

	// Warming again hits the cache.
	require.NoError(t, r.Warm(context.Background()))
	assert.Equal(t, int32(1), a.Load())
}

func TestRegistryWarmSubset(t *testing.T) {
	var a, b atomic.Int32
	r := NewRegistry()
	r.Register("a", staticBuilder("a", &a))
	r.Register("b", staticBuilder("b", &b))

	require.NoError(t, r.Warm(context.Background(), "a"))
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(0), b.Load())
}

func TestRegistryWarmKeepsSiblingBuilds(t *testing.T) {
	var good atomic.Int32
	r := NewRegistry()
	r.Register("good", staticBuilder("good", &good))
	r.Register("bad", func(ctx context.Context) (*Descriptor, error) {
		return nil, fmt.Errorf("cannot build")
	})

	err := r.Warm(context.Background())
	assert.ErrorContains(t, err, "cannot build")

	// The failing sibling must not discard the successful build.
	_, err = r.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, int32(1), good.Load())
}

// Builders may resolve other agents through the registry; the per-name
// locking must not deadlock on such nested resolves.
func TestRegistryNestedResolve(t *testing.T) {
	r := NewRegistry()
	r.Register("leaf", staticBuilder("leaf", nil))
	r.Register("parent", func(ctx context.Context) (*Descriptor, error) {
		leaf, err := r.Resolve(ctx, "leaf")
		if err != nil {
			return nil, err
		}
		return &Descriptor{Name: "parent", Instructions: "delegates to " + leaf.Name}, nil
	})

	d, err := r.Resolve(context.Background(), "parent")
	require.NoError(t, err)
	assert.Equal(t, "delegates to leaf", d.Instructions)
}

// Warm fans builds out concurrently, so a dependent builder's nested
// resolve races Warm's own build of the dependency. The dependency must
// still build exactly once and both descriptors must end up cached.
func TestRegistryWarmWithDependentBuilder(t *testing.T) {
	var builds atomic.Int32
	r := NewRegistry()
	r.Register("a", staticBuilder("a", &builds))
	r.Register("b", func(ctx context.Context) (*Descriptor, error) {
		dep, err := r.Resolve(ctx, "a")
		if err != nil {
			return nil, err
		}
		return &Descriptor{Name: "b", Model: dep.Model}, nil
	})

	require.NoError(t, r.Warm(context.Background()))
	assert.Equal(t, int32(1), builds.Load())

	a1, err := r.Resolve(context.Background(), "a")
	require.NoError(t, err)
	b1, err := r.Resolve(context.Background(), "b")
	require.NoError(t, err)
	a2, err := r.Resolve(context.Background(), "a")
	require.NoError(t, err)
	b2, err := r.Resolve(context.Background(), "b")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Same(t, b1, b2)
	assert.Equal(t, "gpt-5-mini", b1.Model)
	assert.Equal(t, int32(1), builds.Load())
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	r.Register("b", staticBuilder("b", nil))
	r.Register("a", staticBuilder("a", nil))

	assert.Equal(t, []string{"a", "b"}, r.Names())
}
