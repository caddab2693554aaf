package vyosapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/vyconsole/vyconsole/internal/capability"
	"github.com/vyconsole/vyconsole/internal/logging"
	"github.com/vyconsole/vyconsole/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for idempotent requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// DefaultCacheDuration is how long capability matrices are reused
	DefaultCacheDuration = 5 * time.Minute

	// RefreshPath invalidates the server-side configuration cache
	RefreshPath = "/vyos/config/refresh"

	maxBodySize = 16 << 20
)

// Client talks to a VyOS management API.
//
// Only GET requests are retried. Batch, reorder and refresh calls are sent
// exactly once: a batch that timed out may still have been committed.
type Client struct {
	// BaseURL is the API root (e.g., "https://router.lan:8443")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request
	UserAgent string

	// MaxRetries is the maximum number of retry attempts for failed GET requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// CacheDuration is how long to cache capability matrices (0 = no cache)
	CacheDuration time.Duration

	capCache   map[string]cachedMatrix
	cacheMutex sync.RWMutex
}

type cachedMatrix struct {
	matrix  *capability.Matrix
	fetched time.Time
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		UserAgent:     version.UserAgent(),
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
		CacheDuration: DefaultCacheDuration,
		capCache:      make(map[string]cachedMatrix),
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for GET requests
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the API answers at all. Any non-5xx response counts as
// reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/", nil)
	if err == nil {
		return nil
	}
	if apiErr, ok := asAPIError(err); ok && apiErr.Type == ErrTypeHTTP && apiErr.Status < 500 {
		return nil
	}
	return err
}

// GetCapabilities fetches the feature matrix of a category, e.g.
// GetCapabilities(ctx, "/vyos/ethernet"). Results are cached per category
// for CacheDuration.
func (c *Client) GetCapabilities(ctx context.Context, category string) (*capability.Matrix, error) {
	if c.CacheDuration > 0 {
		c.cacheMutex.RLock()
		cached, ok := c.capCache[category]
		c.cacheMutex.RUnlock()
		if ok && time.Since(cached.fetched) < c.CacheDuration {
			return cached.matrix, nil
		}
	}

	body, err := c.get(ctx, category+"/capabilities")
	if err != nil {
		return nil, err
	}

	var matrix capability.Matrix
	if err := json.Unmarshal(body, &matrix); err != nil {
		return nil, NewParseError("failed to parse capabilities", err)
	}

	if c.CacheDuration > 0 {
		c.cacheMutex.Lock()
		if c.capCache == nil {
			c.capCache = make(map[string]cachedMatrix)
		}
		c.capCache[category] = cachedMatrix{matrix: &matrix, fetched: time.Now()}
		c.cacheMutex.Unlock()
	}
	return &matrix, nil
}

// InvalidateCache drops all cached capability matrices
func (c *Client) InvalidateCache() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.capCache = make(map[string]cachedMatrix)
}

// GetConfig fetches the current entity collection of a category as raw
// JSON. With refresh set, the API rebuilds its cache before answering.
func (c *Client) GetConfig(ctx context.Context, category string, refresh bool) (json.RawMessage, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/config?refresh=%t", category, refresh))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, NewParseError("configuration response is not valid JSON", nil)
	}
	return body, nil
}

// Batch posts operations to /<category>/batch.
func (c *Client) Batch(ctx context.Context, category string, req *BatchRequest) (*BatchResponse, error) {
	logging.Debug("Submitting batch",
		zap.String("category", category),
		zap.Int("operations", len(req.Operations)))
	return c.post(ctx, category+"/batch", req)
}

// Reorder posts a renumbering plan to /<category>/reorder.
func (c *Client) Reorder(ctx context.Context, category string, req *ReorderRequest) (*BatchResponse, error) {
	logging.Debug("Submitting reorder",
		zap.String("category", category),
		zap.String("list", req.List),
		zap.Int("rules", len(req.Rules)))
	return c.post(ctx, category+"/reorder", req)
}

// RefreshConfig asks the API to reload its configuration cache
func (c *Client) RefreshConfig(ctx context.Context) error {
	_, err := c.post(ctx, RefreshPath, nil)
	return err
}

// ApplyBatch posts the batch, then refreshes the server-side cache so the
// next GetConfig reflects the change. The refresh is skipped when the batch
// fails.
func (c *Client) ApplyBatch(ctx context.Context, category string, req *BatchRequest) (*BatchResponse, error) {
	resp, err := c.Batch(ctx, category, req)
	if err != nil {
		return nil, err
	}
	if err := c.RefreshConfig(ctx); err != nil {
		return resp, fmt.Errorf("batch applied but refresh failed: %w", err)
	}
	return resp, nil
}

// ApplyReorder posts the reorder, then refreshes the server-side cache.
func (c *Client) ApplyReorder(ctx context.Context, category string, req *ReorderRequest) (*BatchResponse, error) {
	resp, err := c.Reorder(ctx, category, req)
	if err != nil {
		return nil, err
	}
	if err := c.RefreshConfig(ctx); err != nil {
		return resp, fmt.Errorf("reorder applied but refresh failed: %w", err)
	}
	return resp, nil
}

// get performs an idempotent GET with exponential backoff on retryable errors
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.RetryDelay,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         c.MaxRetryDelay,
	}
	b.Reset()

	return backoff.Retry(ctx, func() ([]byte, error) {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil && !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logging.Warn("Retrying request",
				zap.String("path", path),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
}

// post sends one POST and checks the success flag of the response body
func (c *Client) post(ctx context.Context, path string, payload any) (*BatchResponse, error) {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	resp := &BatchResponse{Success: true}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return resp, nil
	}

	// A body without a success field counts as success.
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, NewParseError("failed to parse response", err)
	}

	if !resp.Success {
		msg, details := ParseErrorBody("application/json", body)
		if msg == "" {
			msg = resp.Message
		}
		apiErr := NewApplicationError(http.StatusOK, msg, details)
		apiErr.Endpoint = path
		return resp, apiErr
	}
	return resp, nil
}

// do performs a single request and normalizes every failure into an APIError
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		logging.LogBody("Request body", data)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.Debug("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, NewNetworkError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewNetworkError(path, err)
	}
	logging.LogRequest(method, path, resp.StatusCode, time.Since(start))
	logging.LogBody("Response body", body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	msg, details := ParseErrorBody(resp.Header.Get("Content-Type"), body)
	if msg == "" {
		msg = fmt.Sprintf("%s with status %d", DefaultErrorMessage, resp.StatusCode)
	}

	var apiErr *APIError
	if isAuthStatus(resp.StatusCode) {
		apiErr = NewAuthError(resp.StatusCode, msg)
	} else {
		apiErr = NewHTTPError(resp.StatusCode, msg, details)
	}
	apiErr.Endpoint = path
	return nil, apiErr
}
