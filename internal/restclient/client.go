// Package restclient provides the shared HTTP client used by every data
// source: one client per API base URL, with a per-client request-rate
// ceiling, bounded retry with exponential backoff, and a disk cache of
// successful JSON responses keyed by request signature.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit     = 15 // requests per second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 1 * time.Second
	defaultUserAgent     = "genescout/1.0"

	getTimeout  = 30 * time.Second
	postTimeout = 60 * time.Second
)

// Request describes one logical API call.
type Request struct {
	Method   string
	Endpoint string     // path appended to the client's base URL
	Params   url.Values // query parameters
	Body     any        // JSON-serialized for POST
	NoCache  bool       // bypass the response cache for this call
}

// Client mediates all calls to one API base URL. Two clients for different
// base URLs rate-limit independently. A single Request occupies the caller
// for the full duration of limiter waits, the round trip, and any backoff.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	store         Store
	cacheEnabled  bool
	retryAttempts int
	retryDelay    time.Duration
	userAgent     string
	logger        *zap.Logger
}

// Option customizes a Client.
type Option func(*Client) error

// WithRateLimit sets the requests-per-second ceiling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) error {
		if rps <= 0 {
			return fmt.Errorf("rate limit must be positive, got %v", rps)
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		return nil
	}
}

// WithCacheDir enables the disk cache rooted at dir. Construction fails if
// the directory cannot be created.
func WithCacheDir(dir string) Option {
	return func(c *Client) error {
		fs, err := NewFileStore(dir)
		if err != nil {
			return err
		}
		c.store = fs
		return nil
	}
}

// WithStore supplies a custom cache store.
func WithStore(s Store) Option {
	return func(c *Client) error {
		c.store = s
		return nil
	}
}

// WithCacheEnabled toggles response caching globally for the client.
func WithCacheEnabled(enabled bool) Option {
	return func(c *Client) error {
		c.cacheEnabled = enabled
		return nil
	}
}

// WithRetry sets the attempt budget and the base backoff delay. The Kth
// retry waits delay * 2^(K-1).
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) error {
		if attempts < 1 {
			return fmt.Errorf("retry attempts must be at least 1, got %d", attempts)
		}
		c.retryAttempts = attempts
		c.retryDelay = delay
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger for retry and cache diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// New creates a client for the given base URL. Only misconfiguration (bad
// option values, uncreatable cache directory) is an error here; network
// problems surface per call.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{},
		limiter:       rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		cacheEnabled:  true,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
		userAgent:     defaultUserAgent,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Get issues a cached, rate-limited GET and returns the JSON body.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Params: params})
}

// Post issues a cached, rate-limited POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, params url.Values, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Params: params, Body: body})
}

// Do executes one logical request. A cache hit returns immediately without
// touching the network or the limiter. Otherwise the request is retried on
// 429, 5xx, and transport errors, with exponential backoff, up to
// the attempt budget. Any other non-200 status gives up at once. HTTP-level
// failure is an ordinary error value; callers are expected to log it and
// continue with partial data.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	key := cacheKey(req.Method, req.Endpoint, req.Params, bodyBytes)
	useCache := c.cacheEnabled && c.store != nil && !req.NoCache

	if useCache {
		if data, ok := c.store.Get(key); ok {
			return data, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, status, err := c.roundTrip(ctx, req, bodyBytes)
		switch {
		case err != nil:
			lastErr = err
			c.logger.Warn("request failed",
				zap.String("endpoint", req.Endpoint),
				zap.Int("attempt", attempt+1),
				zap.Int("budget", c.retryAttempts),
				zap.Error(err))
		case status == http.StatusOK:
			if useCache {
				if perr := c.store.Put(key, data); perr != nil {
					// Cache write failure degrades to "not cached".
					c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(perr))
				}
			}
			return data, nil
		case retryableStatus(status):
			lastErr = fmt.Errorf("http %d from %s%s", status, c.baseURL, req.Endpoint)
			c.logger.Warn("transient status, backing off",
				zap.String("endpoint", req.Endpoint),
				zap.Int("status", status),
				zap.Int("attempt", attempt+1))
		default:
			return nil, fmt.Errorf("http %d from %s%s", status, c.baseURL, req.Endpoint)
		}

		if attempt < c.retryAttempts-1 {
			if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("giving up on %s %s after %d attempts: %w",
		req.Method, req.Endpoint, c.retryAttempts, lastErr)
}

// roundTrip performs a single HTTP exchange and reads the full body.
func (c *Client) roundTrip(ctx context.Context, req Request, body []byte) ([]byte, int, error) {
	timeout := getTimeout
	if req.Method == http.MethodPost {
		timeout = postTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + req.Endpoint
	if len(req.Params) > 0 {
		u += "?" + req.Params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, reader)
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// retryableStatus reports whether a status is treated as transient.
// 429 is the remote throttling us; 5xx responses commonly clear within a
// backoff window. Other 4xx statuses mean the request cannot succeed and
// are not worth a retry.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) backoff(attempt int) time.Duration {
	return c.retryDelay * (1 << attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
