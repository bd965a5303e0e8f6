package backend

import (
	"context"
	"encoding/json"
)

const cachePrefix = "backend:cache:"

func (b *Backend) cacheEnabled() bool {
	return b.redis != nil && b.cacheTTL > 0
}

// readCache and writeCache serve only unauthenticated clients. Session
// calls always reach the backend so the bearer and 401 hooks run.
func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.creds != nil {
		return false
	}
	return c.backend.readCache(ctx, key, out)
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.creds != nil {
		return
	}
	c.backend.writeCache(ctx, key, val)
}

func (b *Backend) readCache(ctx context.Context, key string, out any) bool {
	if !b.cacheEnabled() {
		return false
	}
	val, err := b.redis.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (b *Backend) writeCache(ctx context.Context, key string, val any) {
	if !b.cacheEnabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := b.redis.Set(ctx, cachePrefix+key, data, b.cacheTTL).Err(); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// invalidate drops every cached entry whose key starts with prefix.
func (b *Backend) invalidate(ctx context.Context, prefixes ...string) {
	if !b.cacheEnabled() {
		return
	}
	for _, p := range prefixes {
		iter := b.redis.Scan(ctx, 0, cachePrefix+p+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			b.logger.Warn().Err(err).Str("prefix", p).Msg("cache scan failed")
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := b.redis.Del(ctx, keys...).Err(); err != nil {
			b.logger.Warn().Err(err).Str("prefix", p).Msg("cache invalidation failed")
		}
	}
}
