package catalog

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for classification with errors.Is. The typed structs below
// carry detail; both match their sentinel.
var (
	ErrRateLimited = errors.New("catalog: rate limited")
	ErrTimeout     = errors.New("catalog: timeout")
	ErrService     = errors.New("catalog: service error")
)

// RateLimitError reports an upstream 429 with the advertised retry delay.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("catalog: rate limited, retry after %s", e.RetryAfter)
	}
	return "catalog: rate limited"
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// TimeoutError reports a fetch that exceeded its deadline.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Elapsed > 0 {
		return fmt.Sprintf("catalog: timeout after %s", e.Elapsed)
	}
	return "catalog: timeout"
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ServiceError reports an upstream failure that is neither throttling nor a
// timeout: 5xx responses, malformed bodies, an open circuit.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("catalog: service error (status %d): %s", e.Status, e.Message)
	}
	return "catalog: service error: " + e.Message
}

func (e *ServiceError) Is(target error) bool { return target == ErrService }
