// Package guard owns the resilience wrapper around the catalog fetch: a
// circuit breaker, a token-bucket rate limiter, a fetch-concurrency
// semaphore, and the per-request timeout. The scoring core never sees any of
// this; it consumes the wrapped Fetcher.
package guard

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/flipscan/flipscan/internal/domain/extract"
	"github.com/flipscan/flipscan/internal/providers/catalog"
)

// Config tunes the guard. Zero values fall back to the defaults below.
type Config struct {
	MaxConcurrent       int
	RequestsPerSecond   float64
	Burst               int
	RequestTimeout      time.Duration
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

// Guard wraps a Fetcher and still satisfies catalog.Fetcher.
type Guard struct {
	inner   catalog.Fetcher
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	sem     chan struct{}
	timeout time.Duration
}

func New(inner catalog.Fetcher, cfg Config) *Guard {
	cfg = cfg.withDefaults()

	settings := gobreaker.Settings{
		Name:    "catalog",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// Throttling is backpressure, not provider failure; it must not
		// trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, catalog.ErrRateLimited)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Guard{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		timeout: cfg.RequestTimeout,
	}
}

// Fetch applies the semaphore, the limiter, the per-request timeout, and the
// breaker, in that order, then delegates.
func (g *Guard) Fetch(ctx context.Context, asin string) (*extract.RawProduct, error) {
	select {
	case g.sem <- struct{}{}:
		defer func() { <-g.sem }()
	case <-ctx.Done():
		return nil, mapContextErr(ctx.Err())
	}

	// The limiter reports its own error when the wait cannot fit inside the
	// context deadline; both shapes mean the same thing to callers.
	if err := g.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, &catalog.TimeoutError{}
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Fetch(reqCtx, asin)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &catalog.ServiceError{Message: "circuit open: " + err.Error()}
		}
		return nil, err
	}
	return result.(*extract.RawProduct), nil
}

func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &catalog.TimeoutError{}
	}
	return err
}
