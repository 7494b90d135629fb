package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// DefaultLimits covers the sign-in routes. Challenge issuance is the
// cheapest to abuse so it gets the tightest window.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		"siwe_challenge": {Limit: 10, Window: time.Minute},
		"siwe_verify":    {Limit: 20, Window: time.Minute},
		"siwe_validate":  {Limit: 60, Window: time.Minute},
		"default":        {Limit: 100, Window: time.Minute},
	}
}

type bucketState struct {
	// timestamps holds request times in Unix ms, newest last.
	timestamps []int64
}

// Limiter is an in-memory sliding-window rate limiter.
// It is intended as a single-node fallback when Redis is unavailable.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	buckets map[string]*bucketState
}

// New constructs a new in-memory limiter with the provided per-bucket limits.
// A nil map falls back to DefaultLimits.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string]*bucketState),
	}
}

func (l *Limiter) get(bucket string) (Limit, bool) {
	if v, ok := l.limits[bucket]; ok {
		return v, true
	}
	if v, ok := l.limits["default"]; ok {
		return v, true
	}
	return Limit{Limit: 100, Window: time.Minute}, false
}

// AllowNamed matches the adapter's RateLimiter interface. It uses a simple
// sliding window over the configured duration, pruning expired entries on
// each call and removing empty buckets to avoid unbounded memory growth.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim, _ := l.get(bucket)
	nowMs := time.Now().UnixNano() / 1e6
	windowStart := nowMs - lim.Window.Milliseconds()
	limitKey := fmt.Sprintf("%s:%s", key, bucket)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[limitKey]
	if !ok {
		b = &bucketState{}
		l.buckets[limitKey] = b
	}

	// Prune timestamps outside the window.
	ts := b.timestamps
	pruneIdx := 0
	for pruneIdx < len(ts) && ts[pruneIdx] < windowStart {
		pruneIdx++
	}
	if pruneIdx > 0 {
		ts = ts[pruneIdx:]
	}

	if len(ts) >= lim.Limit {
		// Deny without recording this attempt.
		b.timestamps = ts
		if len(ts) == 0 {
			delete(l.buckets, limitKey)
		}
		return false, nil
	}

	ts = append(ts, nowMs)
	b.timestamps = ts

	return true, nil
}
