package main

import (
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/flipscan/flipscan/internal/config"
	"github.com/flipscan/flipscan/internal/providers/cache"
	"github.com/flipscan/flipscan/internal/providers/catalog"
	"github.com/flipscan/flipscan/internal/providers/guard"
)

// fetchFlags are the upstream knobs shared by scan and score.
type fetchFlags struct {
	baseURL   string
	apiKey    string
	timeout   time.Duration
	rps       float64
	redisAddr string
	cacheTTL  time.Duration
}

func addFetchFlags(fs *pflag.FlagSet, f *fetchFlags) {
	fs.StringVar(&f.baseURL, "catalog-url", "https://api.catalogdata.io", "Catalog provider base URL")
	fs.StringVar(&f.apiKey, "api-key", "", "Catalog provider API key (or CATALOG_API_KEY)")
	fs.DurationVar(&f.timeout, "fetch-timeout", 10*time.Second, "Per-request upstream timeout")
	fs.Float64Var(&f.rps, "fetch-rps", 5, "Upstream request rate limit")
	fs.StringVar(&f.redisAddr, "redis", "", "Redis address for the raw-record cache (disabled when empty)")
	fs.DurationVar(&f.cacheTTL, "cache-ttl", 15*time.Minute, "Raw-record cache TTL")
}

// buildFetcher assembles the fetch stack: HTTP client, resilience guard, and
// optionally the Redis cache in front.
func buildFetcher(f *fetchFlags, cfg *config.Config) catalog.Fetcher {
	apiKey := f.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("CATALOG_API_KEY")
	}
	var fetcher catalog.Fetcher = catalog.NewClient(f.baseURL, apiKey, f.timeout)

	fetcher = guard.New(fetcher, guard.Config{
		MaxConcurrent:     cfg.Batch.MaxConcurrency,
		RequestsPerSecond: f.rps,
		RequestTimeout:    f.timeout,
	})

	if f.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: f.redisAddr})
		fetcher = cache.New(rdb, fetcher, f.cacheTTL)
	}
	return fetcher
}
