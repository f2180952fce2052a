package ratelimit

import (
	"sync"
	"time"
)

// bucket is a single token bucket. Tokens refill continuously at refillRate
// per second up to capacity; each allowed request spends one token.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

func (b *bucket) take(capacity int, refillRate float64, now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * refillRate
	if b.tokens > float64(capacity) {
		b.tokens = float64(capacity)
	}
	b.lastRefill = now

	if b.tokens < 1.0 {
		return false
	}
	b.tokens -= 1.0
	return true
}

// Limiter enforces a token-bucket limit per key. Keys are arbitrary strings;
// the verification endpoints key on client IP so that one device cannot burn
// through codes or attempts for the whole service.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int
	refillRate float64
	ttl        time.Duration
}

// NewLimiter creates a per-key limiter allowing a burst of capacity requests
// and a sustained rate of refillRate requests per second per key. Buckets
// idle longer than ttl are dropped; ttl 0 keeps them forever.
func NewLimiter(capacity int, refillRate float64, ttl time.Duration) *Limiter {
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillRate,
		ttl:        ttl,
	}
	if ttl > 0 {
		go l.evictLoop()
	}
	return l
}

// PerMinute is a convenience constructor for the common "n requests per
// minute" configuration.
func PerMinute(n int, ttl time.Duration) *Limiter {
	return NewLimiter(n, float64(n)/60.0, ttl)
}

// Allow reports whether a request for key should proceed, consuming a token
// when it does.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.capacity), lastRefill: now}
		l.buckets[key] = b
	}
	return b.take(l.capacity, l.refillRate, now)
}

// Reset restores the bucket for key to full capacity.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		b.tokens = float64(l.capacity)
		b.lastRefill = time.Now()
	}
}

// ActiveKeys returns the number of keys currently tracked.
func (l *Limiter) ActiveKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for key, b := range l.buckets {
			if now.Sub(b.lastRefill) > l.ttl {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
