// Package catalog talks to the external catalog data provider. It exposes the
// Fetcher interface the rest of the system consumes and maps upstream
// failures onto the typed error taxonomy.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flipscan/flipscan/internal/domain/extract"
)

// Fetcher supplies the raw per-ASIN record or a typed failure. The scoring
// core only ever sees this interface; resilience and caching wrap it.
type Fetcher interface {
	Fetch(ctx context.Context, asin string) (*extract.RawProduct, error)
}

// Client is the HTTP implementation against the provider's product endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves one raw record. It decodes only the documented keys of the
// provider payload and never assumes structural completeness: absent slots
// stay nil and are handled downstream by the extractor.
func (c *Client) Fetch(ctx context.Context, asin string) (*extract.RawProduct, error) {
	started := time.Now()

	endpoint := fmt.Sprintf("%s/v1/products/%s", c.baseURL, url.PathEscape(asin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ServiceError{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Elapsed: time.Since(started)}
		}
		return nil, &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode != http.StatusOK:
		return nil, &ServiceError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var raw extract.RawProduct
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &ServiceError{Status: resp.StatusCode, Message: "malformed product payload: " + err.Error()}
	}
	if raw.ASIN == "" {
		raw.ASIN = asin
	}

	log.Debug().
		Str("asin", asin).
		Dur("elapsed", time.Since(started)).
		Msg("catalog fetch")
	return &raw, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
