// Package cache holds prepared series in memory keyed by region, indicator and training window.
package cache

import (
	"sync"
	"time"

	"github.com/aouyang1/go-macroforecast/timedataset"
)

const DefaultTTL = 6 * time.Hour

// Key identifies a cached series
type Key struct {
	Region    string `json:"region"`
	Indicator string `json:"indicator"`

	// Window is the trailing window length, zero for the full history
	Window int `json:"window"`
}

type entry struct {
	td      *timedataset.TimeDataset
	expires time.Time
}

// Cache is a concurrency safe series cache with a fixed time to live. Stored datasets are copied
// on the way in and out so callers can never mutate a cached value.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]entry
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the time source used for expiry
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache. A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Key]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached series if present and not expired
func (c *Cache) Get(key Key) (*timedataset.TimeDataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.td.Copy(), true
}

// Set stores a copy of the series
func (c *Cache) Set(key Key, td *timedataset.TimeDataset) {
	if td == nil {
		td = &timedataset.TimeDataset{}
	}
	cp := td.Copy()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{td: cp, expires: c.now().Add(c.ttl)}
}

// Purge drops every entry
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]entry)
}

// Len counts the live entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}
