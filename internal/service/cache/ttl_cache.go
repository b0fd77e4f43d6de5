package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is an in-process BytesCache. Expired entries are evicted on read and
// by a sweep that runs from SetBytes at most once per sweepEvery. When the cache
// holds maxEntries, a write first evicts the entry closest to expiry.
type TTLCache struct {
	mu         sync.Mutex
	m          map[string]entry
	maxEntries int
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

type TTLOption func(*TTLCache)

// WithMaxEntries bounds the number of stored entries; n <= 0 means unbounded.
func WithMaxEntries(n int) TTLOption {
	return func(c *TTLCache) { c.maxEntries = n }
}

// WithSweepInterval sets how often expired entries are purged.
func WithSweepInterval(d time.Duration) TTLOption {
	return func(c *TTLCache) { c.sweepEvery = d }
}

func NewTTLCache(opts ...TTLOption) *TTLCache {
	c := &TTLCache{
		m:          make(map[string]entry),
		maxEntries: 10000,
		sweepEvery: time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

// SetBytes stores value; ttl <= 0 never expires.
func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep(now)
	if _, exists := c.m[key]; !exists && c.maxEntries > 0 && len(c.m) >= c.maxEntries {
		c.evictOne(now)
	}
	c.m[key] = entry{v: value, exp: exp}
	return nil
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

func (c *TTLCache) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.sweepEvery {
		return
	}
	c.lastSweep = now
	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
		}
	}
}

// evictOne drops an expired entry if there is one, otherwise the one expiring
// soonest. Entries without expiry go last.
func (c *TTLCache) evictOne(now time.Time) {
	var victim string
	var victimExp time.Time
	found := false
	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
			return
		}
		if e.exp.IsZero() {
			if !found {
				victim, found = k, true
			}
			continue
		}
		if !found || victimExp.IsZero() || e.exp.Before(victimExp) {
			victim, victimExp, found = k, e.exp, true
		}
	}
	if found {
		delete(c.m, victim)
	}
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *TTLCache) Close() error { return nil }
