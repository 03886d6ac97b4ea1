package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token-bucket rate limiter keyed by caller identity. Buckets
// are created on first use and pruned when idle.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

type bucket struct {
	tokens    float64
	capacity  float64
	refillPer float64 // tokens per second
	last      time.Time
}

const idleEvictAfter = 10 * time.Minute

func New() *Limiter {
	return &Limiter{m: make(map[string]*bucket)}
}

// Allow consumes one token for key if available. capacity is the burst
// size, refillPerSec the sustained rate.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		if len(l.m) > 1024 {
			l.pruneLocked(now)
		}
		b = &bucket{tokens: capacity, capacity: capacity, refillPer: refillPerSec, last: now}
		l.m[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillPer
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (l *Limiter) pruneLocked(now time.Time) {
	for key, b := range l.m {
		if now.Sub(b.last) > idleEvictAfter {
			delete(l.m, key)
		}
	}
}
