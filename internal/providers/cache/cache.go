// Package cache is the Redis-backed raw-record cache. It decorates a Fetcher:
// hits skip the upstream entirely, misses fall through and populate the cache
// best-effort. A broken cache degrades to direct fetching, never to failure.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/flipscan/flipscan/internal/domain/extract"
	"github.com/flipscan/flipscan/internal/providers/catalog"
)

const keyPrefix = "flipscan:raw:"

// Cache satisfies catalog.Fetcher.
type Cache struct {
	rdb   *redis.Client
	inner catalog.Fetcher
	ttl   time.Duration
}

func New(rdb *redis.Client, inner catalog.Fetcher, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, inner: inner, ttl: ttl}
}

func key(asin string) string {
	return keyPrefix + asin
}

func (c *Cache) Fetch(ctx context.Context, asin string) (*extract.RawProduct, error) {
	data, err := c.rdb.Get(ctx, key(asin)).Bytes()
	switch {
	case err == nil:
		var raw extract.RawProduct
		if uerr := json.Unmarshal(data, &raw); uerr == nil {
			log.Debug().Str("asin", asin).Msg("raw record cache hit")
			return &raw, nil
		}
		// Corrupt entry: drop it and refetch.
		log.Warn().Str("asin", asin).Msg("corrupt cache entry, refetching")
		c.rdb.Del(ctx, key(asin))
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("asin", asin).Msg("cache unavailable, fetching direct")
	}

	raw, err := c.inner.Fetch(ctx, asin)
	if err != nil {
		return nil, err
	}

	if data, merr := json.Marshal(raw); merr == nil {
		if serr := c.rdb.Set(ctx, key(asin), data, c.ttl).Err(); serr != nil {
			log.Warn().Err(serr).Str("asin", asin).Msg("cache write failed")
		}
	}
	return raw, nil
}
