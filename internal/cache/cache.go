// Package cache implements the in-process slug resolution cache used by the
// redirect path.
//
// SlugCache maps a normalized slug to its resolution summary. It provides:
//
//   - Single-flight loading: concurrent misses for one slug share a single
//     call to the Loader and observe the same result or the same *FetchError.
//   - Bounded capacity with least-recently-used eviction. In-flight loads are
//     tracked by the single-flight group, never by the LRU, so eviction cannot
//     strand waiters.
//   - Negative entries: a slug that matched nothing is cached as a nil
//     summary under a present key.
//   - Explicit invalidation. A load that started before Invalidate(slug) may
//     still answer its waiters, but it never writes its result back.
//
// There is no TTL; entries live until evicted or invalidated.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// DefaultCapacity is used when Options.Capacity is not positive.
const DefaultCapacity = 10_000

// generationStripes is the number of invalidation generation counters.
// Slugs hash onto a stripe; an invalidation only rejects in-flight fills
// whose slug shares that stripe.
const generationStripes = 256

// Loader fetches the current resolution of a slug from durable storage.
// A nil summary with a nil error means the slug matched nothing.
type Loader interface {
	Load(ctx context.Context, slug string) (*domain.Summary, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc func(ctx context.Context, slug string) (*domain.Summary, error)

// Load calls f(ctx, slug).
func (f LoaderFunc) Load(ctx context.Context, slug string) (*domain.Summary, error) {
	return f(ctx, slug)
}

// FetchError wraps a Loader failure. One value is shared by every caller
// that waited on the same load; failures are never cached.
type FetchError struct {
	Slug string
	Err  error
}

func (e *FetchError) Error() string { return fmt.Sprintf("resolve slug %q: %v", e.Slug, e.Err) }

// Unwrap returns the underlying Loader error.
func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a SlugCache.
type Options struct {
	// Capacity bounds the number of cached slugs (positive and negative).
	Capacity int
	// LoadTimeout caps a single load. Zero means no cap beyond the
	// caller-independent context the load runs on.
	LoadTimeout time.Duration
	// Logger receives debug events; the zero value discards them.
	Logger zerolog.Logger
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Loads         uint64
	LoadErrors    uint64
	Invalidations uint64
	Entries       int
}

// SlugCache is safe for concurrent use without external locking.
type SlugCache struct {
	loader  Loader
	timeout time.Duration
	log     zerolog.Logger

	entries *lru.Cache[string, *domain.Summary]
	group   singleflight.Group

	// mu orders fills against invalidations.
	mu   sync.Mutex
	gens [generationStripes]uint64

	hits, misses, loads, loadErrs, invalidations atomic.Uint64
}

// New constructs a SlugCache backed by loader.
func New(loader Loader, opts Options) (*SlugCache, error) {
	if loader == nil {
		return nil, fmt.Errorf("cache: nil loader")
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.NewWithEvict[string, *domain.Summary](capacity, func(string, *domain.Summary) {
		cacheEvictions.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &SlugCache{
		loader:  loader,
		timeout: opts.LoadTimeout,
		log:     opts.Logger,
		entries: entries,
	}, nil
}

// Resolve returns the summary for slug, loading it at most once across
// concurrent callers when it is not cached. A nil summary with a nil error
// means the slug matched nothing. Load failures are returned as *FetchError.
//
// The load itself does not inherit ctx cancellation, so one caller giving up
// does not fail the others; the giving-up caller gets ctx.Err().
func (c *SlugCache) Resolve(ctx context.Context, slug string) (*domain.Summary, error) {
	if s, ok := c.entries.Get(slug); ok {
		c.hits.Add(1)
		cacheLookups.WithLabelValues("hit").Inc()
		return s, nil
	}
	c.misses.Add(1)
	cacheLookups.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(slug, func() (any, error) {
		return c.load(ctx, slug)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		s, _ := res.Val.(*domain.Summary)
		return s, nil
	}
}

// load runs inside the single-flight group.
func (c *SlugCache) load(ctx context.Context, slug string) (*domain.Summary, error) {
	// A caller that missed just before the previous flight filled the entry
	// lands here; answer from the cache instead of loading twice.
	if s, ok := c.entries.Peek(slug); ok {
		return s, nil
	}

	gen := c.generation(slug)

	lctx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(lctx, c.timeout)
		defer cancel()
	}

	c.loads.Add(1)
	cacheLoads.Inc()
	start := time.Now()
	s, err := c.loader.Load(lctx, slug)
	cacheLoadSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		c.loadErrs.Add(1)
		cacheLoadErrors.Inc()
		return nil, &FetchError{Slug: slug, Err: err}
	}

	c.fill(slug, gen, s)
	return s, nil
}

// fill stores s unless slug was invalidated after the load began.
func (c *SlugCache) fill(slug string, gen uint64, s *domain.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[stripe(slug)] != gen {
		c.log.Debug().Str("slug", slug).Msg("discarding stale cache fill")
		return
	}
	c.entries.Add(slug, s)
}

// Invalidate drops the cached entry for slug, if any, and makes sure a load
// already in flight cannot repopulate it. The next Resolve loads afresh.
func (c *SlugCache) Invalidate(slug string) {
	c.mu.Lock()
	c.gens[stripe(slug)]++
	c.entries.Remove(slug)
	c.mu.Unlock()

	c.group.Forget(slug)
	c.invalidations.Add(1)
	cacheInvalidations.Inc()
	c.log.Debug().Str("slug", slug).Msg("cache entry invalidated")
}

// Len returns the number of cached entries, negative ones included.
func (c *SlugCache) Len() int { return c.entries.Len() }

// Stats returns the current counters.
func (c *SlugCache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Loads:         c.loads.Load(),
		LoadErrors:    c.loadErrs.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       c.entries.Len(),
	}
}

func (c *SlugCache) generation(slug string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[stripe(slug)]
}

func stripe(slug string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return int(h.Sum32() % generationStripes)
}
