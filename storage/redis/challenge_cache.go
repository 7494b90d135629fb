package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/open-rails/siwekit/siwe"
	"github.com/redis/go-redis/v9"
)

// ChallengeCache stores pending SIWE challenges in Redis.
type ChallengeCache struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

// NewChallengeCache creates a new Redis-backed SIWE challenge cache.
func NewChallengeCache(rdb *redis.Client, keyPrefix string, ttl time.Duration) *ChallengeCache {
	if keyPrefix == "" {
		keyPrefix = "auth:siwe:nonce:"
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ChallengeCache{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (c *ChallengeCache) key(nonce string) string { return c.keyNS + nonce }

// Put stores a challenge in Redis.
func (c *ChallengeCache) Put(ctx context.Context, nonce string, data siwe.ChallengeData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(nonce), b, c.ttl).Err()
}

// Get retrieves a challenge from Redis.
func (c *ChallengeCache) Get(ctx context.Context, nonce string) (siwe.ChallengeData, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(nonce)).Bytes()
	if err == redis.Nil {
		return siwe.ChallengeData{}, false, nil
	}
	if err != nil {
		return siwe.ChallengeData{}, false, err
	}
	var d siwe.ChallengeData
	if err := json.Unmarshal(val, &d); err != nil {
		return siwe.ChallengeData{}, false, err
	}
	return d, true, nil
}

// Del removes a challenge from Redis.
func (c *ChallengeCache) Del(ctx context.Context, nonce string) error {
	return c.rdb.Del(ctx, c.key(nonce)).Err()
}
