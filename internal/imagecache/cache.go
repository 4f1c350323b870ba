package imagecache

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/moviedeck/internal/domain"
)

const (
	defaultMissingCooldown = 5 * time.Minute
	defaultFetchTimeout    = 30 * time.Second
)

// Tier identifies where a lookup was served from.
type Tier int

const (
	TierNone Tier = iota
	TierMemory
	TierDisk
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierDisk:
		return "disk"
	default:
		return "none"
	}
}

// Options configures a Cache. Zero values select defaults; a zero
// MaxEntries or MaxBytes leaves that dimension unbounded.
type Options struct {
	MaxEntries      int
	MaxBytes        int64
	MissingCooldown time.Duration
	FetchTimeout    time.Duration
	Decoder         Decoder
	Logger          *slog.Logger
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	MemoryHits     int64
	DiskHits       int64
	Misses         int64
	NetworkFetches int64
	Coalesced      int64
	Evictions      int64
	Failures       int64
	Entries        int
	Bytes          int64
	Pinned         int
}

// Cache is the two-tier image store: an LRU memory tier in front of a
// persistent disk tier, backed by network retrieval.
type Cache struct {
	fetcher domain.ImageFetcher
	disk    domain.DiskStore // nil = memory only
	decoder Decoder
	logger  *slog.Logger

	fetchTimeout time.Duration
	maxEntries   int
	maxBytes     int64

	mu    sync.Mutex // Protects lru, bytes, pins
	lru   *simplelru.LRU[domain.ImageKey, *domain.Image]
	bytes int64
	pins  map[domain.ImageKey]int

	// At most one retrieval per key; disk writes happen inside it
	group   singleflight.Group
	missing *gocache.Cache

	memoryHits     atomic.Int64
	diskHits       atomic.Int64
	misses         atomic.Int64
	networkFetches atomic.Int64
	coalesced      atomic.Int64
	evictions      atomic.Int64
	failures       atomic.Int64
}

// New creates a cache over the given fetcher and (optional) disk tier.
func New(fetcher domain.ImageFetcher, disk domain.DiskStore, opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cooldown := opts.MissingCooldown
	if cooldown <= 0 {
		cooldown = defaultMissingCooldown
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	decoder := opts.Decoder
	if decoder == nil {
		decoder = StdDecoder{}
	}

	c := &Cache{
		fetcher:      fetcher,
		disk:         disk,
		decoder:      decoder,
		logger:       logger,
		fetchTimeout: timeout,
		maxEntries:   opts.MaxEntries,
		maxBytes:     opts.MaxBytes,
		pins:         make(map[domain.ImageKey]int),
		missing:      gocache.New(cooldown, 2*cooldown),
	}

	// Limits are enforced by evictLocked so pinned entries can be skipped;
	// the LRU itself only keeps recency order.
	lru, err := simplelru.NewLRU[domain.ImageKey, *domain.Image](math.MaxInt, c.onEvict)
	if err != nil {
		panic(err) // only fails for non-positive sizes
	}
	c.lru = lru
	return c
}

func (c *Cache) onEvict(key domain.ImageKey, img *domain.Image) {
	c.bytes -= img.Bytes()
	c.evictions.Add(1)
	c.logger.Debug("evicted image", "key", key.String(), "bytes", img.Bytes())
}

// LookupSync returns the image from memory, or from disk (promoting it into
// memory). It never touches the network.
func (c *Cache) LookupSync(key domain.ImageKey) (*domain.Image, Tier, bool) {
	img, tier, ok := c.lookup(key)
	switch tier {
	case TierMemory:
		c.memoryHits.Add(1)
	case TierDisk:
		c.diskHits.Add(1)
	default:
		c.misses.Add(1)
	}
	return img, tier, ok
}

func (c *Cache) lookup(key domain.ImageKey) (*domain.Image, Tier, bool) {
	c.mu.Lock()
	img, ok := c.lru.Get(key)
	c.mu.Unlock()
	if ok {
		return img, TierMemory, true
	}

	if c.disk == nil {
		return nil, TierNone, false
	}
	data, ok := c.disk.Get(key.String())
	if !ok {
		return nil, TierNone, false
	}
	img, err := c.decoder.Decode(key, data)
	if err != nil {
		c.logger.Warn("corrupt disk cache entry", "key", key.String(), "error", err)
		return nil, TierNone, false
	}

	c.insert(img)
	return img, TierDisk, true
}

// InMemory reports whether key is resident in the memory tier without
// touching recency.
func (c *Cache) InMemory(key domain.ImageKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(key)
}

// Fetch returns the image for key, retrieving it from the network on a cache
// miss. Failures are reported as domain.ErrMissingResource and the key is
// marked missing for the cooldown period.
func (c *Cache) Fetch(ctx context.Context, key domain.ImageKey) (*domain.Image, error) {
	if key.Path == "" {
		return nil, fmt.Errorf("%w: empty image path", domain.ErrMissingResource)
	}
	if img, _, ok := c.LookupSync(key); ok {
		return img, nil
	}
	if c.IsMissing(key) {
		return nil, fmt.Errorf("%w: %s (cooling down)", domain.ErrMissingResource, key)
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.retrieve(key)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.coalesced.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Image), nil
	case <-ctx.Done():
		// The shared retrieval keeps running for other waiters
		return nil, ctx.Err()
	}
}

// retrieve runs inside the singleflight call for key.
func (c *Cache) retrieve(key domain.ImageKey) (*domain.Image, error) {
	// Another call may have populated the cache between our miss and now
	if img, _, ok := c.lookup(key); ok {
		return img, nil
	}

	// Detached from any caller so a discarded loader does not cancel waiters
	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	c.networkFetches.Add(1)
	start := time.Now()
	data, err := c.fetcher.FetchImage(ctx, key.Path, key.Size)
	if err != nil {
		return nil, c.fail(key, err)
	}

	img, err := c.decoder.Decode(key, data)
	if err != nil {
		return nil, c.fail(key, err)
	}

	if c.disk != nil {
		if err := c.disk.Put(key.String(), img.Data); err != nil {
			c.logger.Warn("failed to persist image", "key", key.String(), "error", err)
		}
	}
	c.insert(img)

	c.logger.Debug("fetched image", "key", key.String(), "bytes", len(img.Data), "duration", time.Since(start))
	return img, nil
}

func (c *Cache) fail(key domain.ImageKey, err error) error {
	c.failures.Add(1)
	c.missing.SetDefault(key.String(), domain.KindOf(err))
	c.logger.Warn("image unavailable", "key", key.String(), "kind", domain.KindOf(err), "error", err)
	return fmt.Errorf("%w: %s: %w", domain.ErrMissingResource, key, err)
}

// IsMissing reports whether key is cooling down after a failure.
func (c *Cache) IsMissing(key domain.ImageKey) bool {
	_, ok := c.missing.Get(key.String())
	return ok
}

// Retry clears the missing mark so the next Fetch goes back to the network.
func (c *Cache) Retry(key domain.ImageKey) {
	c.missing.Delete(key.String())
}

// Pin protects key from eviction until a matching Unpin.
func (c *Cache) Pin(key domain.ImageKey) {
	c.mu.Lock()
	c.pins[key]++
	c.mu.Unlock()
}

// Unpin releases one reference taken by Pin.
func (c *Cache) Unpin(key domain.ImageKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch n := c.pins[key]; {
	case n <= 1:
		delete(c.pins, key)
	default:
		c.pins[key] = n - 1
	}
	// Entries kept over budget by the pin can go now
	c.evictLocked()
}

func (c *Cache) insert(img *domain.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.lru.Peek(img.Key); ok {
		c.bytes -= old.Bytes()
	}
	c.lru.Add(img.Key, img)
	c.bytes += img.Bytes()
	c.evictLocked()
}

func (c *Cache) overBudgetLocked() bool {
	if c.maxEntries > 0 && c.lru.Len() > c.maxEntries {
		return true
	}
	return c.maxBytes > 0 && c.bytes > c.maxBytes
}

// evictLocked drops least-recently-used unpinned entries until within
// budget. The most recent entry is always kept.
func (c *Cache) evictLocked() {
	for c.lru.Len() > 1 && c.overBudgetLocked() {
		victim, ok := c.oldestUnpinnedLocked()
		if !ok {
			return
		}
		c.lru.Remove(victim)
	}
}

func (c *Cache) oldestUnpinnedLocked() (domain.ImageKey, bool) {
	if len(c.pins) == 0 {
		key, _, ok := c.lru.GetOldest()
		return key, ok
	}
	keys := c.lru.Keys() // oldest first
	for _, key := range keys[:len(keys)-1] {
		if c.pins[key] == 0 {
			return key, true
		}
	}
	return domain.ImageKey{}, false
}

// PurgeMemory empties the memory tier. Disk contents are untouched.
func (c *Cache) PurgeMemory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lru.Keys() {
		if c.pins[key] == 0 {
			c.lru.Remove(key)
		}
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries, bytes, pinned := c.lru.Len(), c.bytes, len(c.pins)
	c.mu.Unlock()

	return Stats{
		MemoryHits:     c.memoryHits.Load(),
		DiskHits:       c.diskHits.Load(),
		Misses:         c.misses.Load(),
		NetworkFetches: c.networkFetches.Load(),
		Coalesced:      c.coalesced.Load(),
		Evictions:      c.evictions.Load(),
		Failures:       c.failures.Load(),
		Entries:        entries,
		Bytes:          bytes,
		Pinned:         pinned,
	}
}
