package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipscan/flipscan/internal/domain/extract"
)

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) Fetch(_ context.Context, asin string) (*extract.RawProduct, error) {
	f.calls++
	return &extract.RawProduct{ASIN: asin, Title: "direct"}, nil
}

func TestCache_DegradesToDirectFetchWhenRedisUnavailable(t *testing.T) {
	// Nothing listens on this port; every cache operation fails fast. The
	// decorator must keep serving from the inner fetcher regardless.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	inner := &countingFetcher{}
	c := New(rdb, inner, time.Minute)

	raw, err := c.Fetch(context.Background(), "B000TEST01")
	require.NoError(t, err)
	assert.Equal(t, "B000TEST01", raw.ASIN)
	assert.Equal(t, 1, inner.calls)

	_, err = c.Fetch(context.Background(), "B000TEST01")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "no cache means every fetch goes upstream")
}

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "flipscan:raw:B000TEST01", key("B000TEST01"))
}
