package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/open-rails/siwekit/siwe"
)

// ChallengeCache is an in-memory implementation of siwe.ChallengeCache with TTL.
type ChallengeCache struct {
	mu     sync.Mutex
	ttl    time.Duration
	data   map[string]item
	closed chan struct{}
}

type item struct {
	v   siwe.ChallengeData
	exp time.Time
}

// NewChallengeCache creates a new in-memory challenge cache with the given TTL.
// If ttl <= 0, a default of 15 minutes is used.
// Starts a background goroutine to clean up expired entries every minute.
func NewChallengeCache(ttl time.Duration) *ChallengeCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	c := &ChallengeCache{ttl: ttl, data: make(map[string]item), closed: make(chan struct{})}
	go c.cleanupLoop()
	return c
}

func (c *ChallengeCache) Put(ctx context.Context, nonce string, v siwe.ChallengeData) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[nonce] = item{v: v, exp: time.Now().Add(c.ttl)}
	return nil
}

func (c *ChallengeCache) Get(ctx context.Context, nonce string) (siwe.ChallengeData, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.data[nonce]
	if !ok {
		return siwe.ChallengeData{}, false, nil
	}
	if time.Now().After(it.exp) {
		delete(c.data, nonce)
		return siwe.ChallengeData{}, false, nil
	}
	return it.v, true, nil
}

func (c *ChallengeCache) Del(ctx context.Context, nonce string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, nonce)
	return nil
}

// cleanupLoop runs in the background and removes expired entries every minute.
func (c *ChallengeCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.closed:
			return
		}
	}
}

// cleanup removes all expired entries from the cache.
func (c *ChallengeCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, v := range c.data {
		if now.After(v.exp) {
			delete(c.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
// Should be called when the cache is no longer needed.
func (c *ChallengeCache) Close() error {
	close(c.closed)
	return nil
}
