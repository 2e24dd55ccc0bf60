// Package clients provides the guarded HTTP transport used for all remote
// API access: retry with exponential backoff, token bucket rate limiting,
// response caching, and error classification into retryable and terminal
// failures.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/civicdata/govtable/pkg/errors"
	"github.com/civicdata/govtable/pkg/logger"
	"github.com/civicdata/govtable/pkg/metrics"
)

// ClientConfig configures a guarded HTTP client.
type ClientConfig struct {
	// Name labels the client in logs and metrics, typically the table name.
	Name string
	// APIKey is sent both as the api_key query parameter and the X-Api-Key
	// header; the remote accepts either.
	APIKey string

	Timeout         time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	RetryMultiplier float64
	MaxRetryDelay   time.Duration

	// RateLimitPerSec caps outgoing requests (0 = unlimited).
	RateLimitPerSec float64

	// CacheTTL enables response caching when positive.
	CacheTTL time.Duration
}

// Client is an HTTP client with retry, rate limiting, caching, and error
// classification built in. All remote page fetches go through it.
type Client struct {
	name       string
	apiKey     string
	httpClient *http.Client
	retry      *RetryPolicy
	limiter    RateLimiter
	cache      *ResponseCache
	logger     *zap.Logger
}

// NewClient creates a guarded HTTP client from config, filling in sane
// defaults for zero values.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	retry := NewRetryPolicy(cfg.RetryAttempts, cfg.RetryDelay)
	if cfg.RetryMultiplier > 0 {
		retry.Multiplier = cfg.RetryMultiplier
	}
	if cfg.MaxRetryDelay > 0 {
		retry.MaxDelay = cfg.MaxRetryDelay
	}

	c := &Client{
		name:   cfg.Name,
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retry:  retry,
		logger: logger.Get().With(zap.String("client", cfg.Name)),
	}

	if cfg.RateLimitPerSec > 0 {
		c.limiter = NewTokenBucketRateLimiter(cfg.RateLimitPerSec, int(cfg.RateLimitPerSec)+1)
	}
	if cfg.CacheTTL > 0 {
		c.cache = NewResponseCache(cfg.CacheTTL)
	}

	return c
}

// GetJSON performs a GET against rawURL with the given query parameters and
// decodes the JSON response into out. Numbers are decoded as json.Number to
// preserve integer fidelity. Transient failures (network errors, HTTP 429 and
// 5xx) are retried per the retry policy; other failures surface immediately.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid request URL")
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	u.RawQuery = q.Encode()
	fullURL := u.String()

	if c.cache != nil {
		if body, ok := c.cache.Get(fullURL); ok {
			metrics.CacheHits.WithLabelValues(c.name).Inc()
			return c.decode(body, out)
		}
	}

	var body []byte
	attempt := 0

	err = c.retry.ExecuteIf(ctx, func() error {
		attempt++
		if attempt > 1 {
			metrics.RetryAttempts.WithLabelValues(c.name).Inc()
			c.logger.Debug("retrying request",
				zap.Int("attempt", attempt),
				zap.String("url", u.Path))
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return errors.Wrap(err, errors.ErrorTypeTransport, "rate limiter wait interrupted")
			}
		}

		b, err := c.doRequest(ctx, fullURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, errors.IsRetryable)

	if err != nil {
		typ := "transport"
		if e, ok := errors.AsError(err); ok {
			typ = string(e.Type)
		}
		metrics.RemoteErrors.WithLabelValues(c.name, typ).Inc()
		return err
	}

	if c.cache != nil {
		c.cache.Put(fullURL, body)
	}

	return c.decode(body, out)
}

// doRequest performs a single HTTP GET and classifies the outcome.
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTransport, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTransport, "failed to read response body")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, errors.New(errors.ErrorTypeTransport,
			fmt.Sprintf("remote returned HTTP %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", truncate(string(body), 512))

	default:
		return nil, errors.New(errors.ErrorTypeRemoteAPI,
			fmt.Sprintf("remote rejected request with HTTP %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", truncate(string(body), 512))
	}
}

// decode unmarshals a response body with number fidelity preserved.
func (c *Client) decode(body []byte, out interface{}) error {
	dec := gojson.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrorTypeRemoteAPI, "failed to decode response body")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
