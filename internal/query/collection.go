// Package query caches server-paginated collections keyed by their full
// query parameters.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/model"
)

const DefaultGCTime = 5 * time.Minute

// Fetcher loads one page from the server.
type Fetcher[T any] func(ctx context.Context, params model.ListParams) (model.Page[T], error)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is what a reader sees for one set of params without fetching.
type Snapshot[T any] struct {
	Status   Status
	Page     model.Page[T]
	Err      error
	Stale    bool
	Fetching bool
	// Placeholder is set when Page belongs to a different key and is shown
	// only until the requested key loads.
	Placeholder bool
}

type entry[T any] struct {
	page      model.Page[T]
	hasData   bool
	err       error
	fetchedAt time.Time
	epoch     uint64
}

type Option func(*options)

type options struct {
	clock     clock.PassiveClock
	staleTime time.Duration
	gcTime    time.Duration
	logger    *slog.Logger
}

func WithClock(c clock.PassiveClock) Option {
	return func(o *options) { o.clock = c }
}

// WithStaleTime sets how long a fetched page is served without refetching.
// Zero means every Fetch goes to the server.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) { o.staleTime = d }
}

// WithGCTime sets how long an unread page stays cached.
func WithGCTime(d time.Duration) Option {
	return func(o *options) { o.gcTime = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Collection is the shared cache for one resource.
type Collection[T any] struct {
	name  string
	fetch Fetcher[T]
	opts  options

	mu       sync.Mutex
	entries  *ttlcache.Cache[string, entry[T]]
	fetching map[string]int
	epoch    uint64
	resetAt  uint64
	last     *model.Page[T]

	group singleflight.Group
}

func NewCollection[T any](name string, fetch Fetcher[T], opts ...Option) *Collection[T] {
	o := options{
		clock:  clock.RealClock{},
		gcTime: DefaultGCTime,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T]{
		name:  name,
		fetch: fetch,
		opts:  o,
		entries: ttlcache.New[string, entry[T]](
			ttlcache.WithTTL[string, entry[T]](o.gcTime),
		),
		fetching: make(map[string]int),
	}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Fetch returns the page for params, from cache when it is still fresh.
// Concurrent calls for the same params share one request. A fetch started
// before Invalidate never satisfies a call made after it.
func (c *Collection[T]) Fetch(ctx context.Context, params model.ListParams) (model.Page[T], error) {
	params = params.Normalize()
	key := params.Key()

	c.mu.Lock()
	c.entries.DeleteExpired()
	epoch := c.epoch
	if e, ok := c.lookup(key, true); ok && e.hasData && e.err == nil && c.fresh(e) {
		c.mu.Unlock()
		return e.page, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan(fmt.Sprintf("%s@%d", key, epoch), func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, epoch, params)
	})

	select {
	case <-ctx.Done():
		return model.Page[T]{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Page[T]{}, res.Err
		}
		return res.Val.(model.Page[T]), nil
	}
}

func (c *Collection[T]) load(ctx context.Context, key string, epoch uint64, params model.ListParams) (model.Page[T], error) {
	c.mu.Lock()
	c.fetching[key]++
	c.mu.Unlock()

	c.opts.logger.DebugContext(ctx, "fetching collection page", "collection", c.name, "key", key)
	page, err := c.fetch(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetching[key]--; c.fetching[key] <= 0 {
		delete(c.fetching, key)
	}

	// Results of a fetch started before Reset belong to the previous
	// identity and are never stored.
	if epoch < c.resetAt {
		return page, err
	}
	prev, _ := c.lookup(key, false)
	superseded := prev.hasData && prev.epoch > epoch
	if err != nil {
		if !superseded {
			// Keep the last good data; only record the failure.
			prev.err = err
			c.entries.Set(key, prev, ttlcache.DefaultTTL)
		}
		return model.Page[T]{}, err
	}
	if superseded {
		return page, nil
	}
	c.entries.Set(key, entry[T]{
		page:      page,
		hasData:   true,
		fetchedAt: c.opts.clock.Now(),
		epoch:     epoch,
	}, ttlcache.DefaultTTL)
	c.last = &page
	return page, nil
}

// Snapshot reports the cached state for params without fetching.
func (c *Collection[T]) Snapshot(params model.ListParams) Snapshot[T] {
	key := params.Normalize().Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot[T]{Fetching: c.fetching[key] > 0}
	e, ok := c.lookup(key, false)
	switch {
	case ok && e.hasData:
		snap.Page = e.page
		snap.Stale = !c.fresh(e)
		snap.Err = e.err
		snap.Status = StatusSuccess
		if e.err != nil {
			snap.Status = StatusError
		}
	case ok && e.err != nil:
		snap.Status = StatusError
		snap.Err = e.err
		if c.last != nil {
			snap.Page = *c.last
			snap.Placeholder = true
		}
	case c.last != nil:
		snap.Page = *c.last
		snap.Placeholder = true
		snap.Stale = true
		if snap.Fetching {
			snap.Status = StatusLoading
		}
	default:
		if snap.Fetching {
			snap.Status = StatusLoading
		}
	}
	return snap
}

// Invalidate marks every cached page stale. Cached data stays readable
// until the refetch lands.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
	c.opts.logger.Debug("collection invalidated", "collection", c.name)
}

// Reset drops every cached page.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.resetAt = c.epoch
	c.entries.DeleteAll()
	c.last = nil
}

func (c *Collection[T]) lookup(key string, touch bool) (entry[T], bool) {
	var item *ttlcache.Item[string, entry[T]]
	if touch {
		item = c.entries.Get(key)
	} else {
		item = c.entries.Get(key, ttlcache.WithDisableTouchOnHit[string, entry[T]]())
	}
	if item == nil {
		return entry[T]{}, false
	}
	return item.Value(), true
}

func (c *Collection[T]) fresh(e entry[T]) bool {
	return e.epoch == c.epoch && c.opts.clock.Since(e.fetchedAt) < c.opts.staleTime
}
