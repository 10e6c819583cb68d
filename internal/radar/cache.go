package radar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pders01/radar/internal/debuglog"
)

// DefaultTTL is how long an aggregated snapshot stays fresh.
const DefaultTTL = time.Hour

// Loader performs one full aggregation cycle.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Snapshot, error)

func (f LoaderFunc) Load(ctx context.Context) (*Snapshot, error) { return f(ctx) }

// SnapshotListener is notified after every successful recomputation, e.g.
// to persist or index the new snapshot.
type SnapshotListener interface {
	OnSnapshot(ctx context.Context, snap *Snapshot) error
}

// Cache is a single-slot time-to-live cache over a Loader. Reads and
// recomputations are serialized so callers never observe events from one
// cycle paired with history from another, and at most one recomputation
// runs at a time.
type Cache struct {
	mu         sync.Mutex
	loader     Loader
	ttl        time.Duration
	now        func() time.Time
	snap       *Snapshot
	computedAt time.Time
	listeners  []SnapshotListener
}

type CacheOption func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithListener registers l for snapshot notifications.
func WithListener(l SnapshotListener) CacheOption {
	return func(c *Cache) { c.listeners = append(c.listeners, l) }
}

// WithSeed fills the slot with snap as if it had been computed at
// snap.ComputedAt, so it is served until that time plus the TTL.
// Listeners are not notified.
func WithSeed(snap *Snapshot) CacheOption {
	return func(c *Cache) {
		if snap == nil {
			return
		}
		c.snap = snap
		c.computedAt = snap.ComputedAt
	}
}

func NewCache(loader Loader, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{loader: loader, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot while it is fresh and recomputes it
// otherwise.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.staleLocked(c.now()) {
		return c.snap, nil
	}
	return c.refreshLocked(ctx)
}

// Refresh recomputes the snapshot regardless of its age.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Peek returns the current snapshot without loading; nil when empty.
func (c *Cache) Peek() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// IsStale reports whether a Get at now would recompute.
func (c *Cache) IsStale(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staleLocked(now)
}

// Invalidate empties the slot so the next Get recomputes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.computedAt = time.Time{}
	c.mu.Unlock()
}

// ComputedAt is when the cached snapshot was produced; zero when empty.
func (c *Cache) ComputedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computedAt
}

func (c *Cache) staleLocked(now time.Time) bool {
	return c.snap == nil || now.Sub(c.computedAt) >= c.ttl
}

func (c *Cache) refreshLocked(ctx context.Context) (*Snapshot, error) {
	if c.loader == nil {
		return nil, errors.New("cache has no loader")
	}
	snap, err := c.loader.Load(ctx)
	if err != nil {
		// keep serving the previous cycle
		return c.snap, err
	}

	c.snap = snap
	c.computedAt = c.now()
	debuglog.Infof("aggregated %d events for %d companies", len(snap.Events), len(snap.History))

	for _, l := range c.listeners {
		if lerr := l.OnSnapshot(ctx, snap); lerr != nil {
			debuglog.Warnf("snapshot listener %T: %v", l, lerr)
		}
	}
	return snap, nil
}
