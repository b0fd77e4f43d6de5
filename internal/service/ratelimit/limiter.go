package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key, for example per client IP.
// Buckets idle longer than ttl are dropped on the next sweep.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*bucket
	rps   rate.Limit
	burst int
	ttl   time.Duration
	last  time.Time
	now   func() time.Time
}

// New creates a keyed limiter allowing rps sustained requests with the given burst.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*bucket),
		rps:   rate.Limit(rps),
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	b, ok := l.m[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = b
	}
	b.seen = now
	l.sweep(now)
	l.mu.Unlock()
	return b.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.last) < l.ttl {
		return
	}
	l.last = now
	for k, b := range l.m {
		if now.Sub(b.seen) > l.ttl {
			delete(l.m, k)
		}
	}
}
