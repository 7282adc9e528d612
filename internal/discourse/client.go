// Package discourse is the HTTP transport core for the adapter. It issues
// requests against a single Discourse base address with composed
// authentication headers, a per-call timeout, bounded retry with exponential
// backoff on 429/5xx, and a short-lived response cache for idempotent reads.
package discourse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 250 * time.Millisecond
	defaultUserAgent   = "discourse-mcp"
)

// Client performs HTTP operations against one Discourse site. It is safe for
// concurrent use; the only mutable shared state is the response cache.
type Client struct {
	base        string
	cred        Credential
	basic       *BasicAuth
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	userAgent   string
	logger      *slog.Logger
	cache       *responseCache
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxAttempts sets the total attempt budget for retryable requests.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the initial retry delay. Each retry doubles it.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// WithBasicAuth adds an HTTP Basic credential sent alongside the primary
// authentication scheme.
func WithBasicAuth(user, pass string) Option {
	return func(c *Client) { c.basic = &BasicAuth{User: user, Pass: pass} }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for retry and failure events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Client bound to the given base address and credential.
func NewClient(base string, cred Credential, opts ...Option) *Client {
	c := &Client{
		base:        strings.TrimRight(base, "/"),
		cred:        cred,
		httpClient:  &http.Client{},
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		userAgent:   defaultUserAgent,
		logger:      slog.Default(),
		cache:       newResponseCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the base address this client is bound to.
func (c *Client) Base() string { return c.base }

// Credential returns the primary credential this client authenticates with.
func (c *Client) Credential() Credential { return c.cred }

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers map[string]string
}

// WithHeader adds an extra header to the request. Extra headers are applied
// last and may override any composed header except the multipart
// content type, which the transport re-asserts after the merge.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// Get performs a GET request. The path may carry a query string.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	return c.do(ctx, http.MethodGet, path, nil, "", true, opts...)
}

// GetCached performs a GET request through the response cache. A cached value
// is returned when present and unexpired; otherwise the upstream call runs
// and a successful result is stored until now+ttl. Errors are never cached.
func (c *Client) GetCached(ctx context.Context, path string, ttl time.Duration, opts ...RequestOption) (any, error) {
	key := c.base + path
	if v, ok := c.cache.get(key); ok {
		return v, nil
	}
	v, err := c.Get(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, v, ttl)
	return v, nil
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (any, error) {
	data, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, data, "application/json", true, opts...)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (any, error) {
	data, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, data, "application/json", true, opts...)
}

// Delete performs a DELETE request with an optional JSON body.
func (c *Client) Delete(ctx context.Context, path string, body any, opts ...RequestOption) (any, error) {
	data, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, path, data, "application/json", true, opts...)
}

// PostMultipart performs a multipart form POST. Retries are disabled because
// the form payload is not guaranteed replayable once consumed.
func (c *Client) PostMultipart(ctx context.Context, path string, form *MultipartForm, opts ...RequestOption) (any, error) {
	data, contentType, err := form.encode()
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	return c.do(ctx, http.MethodPost, path, data, contentType, false, opts...)
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("encoding request body: %w", err)}
	}
	return data, nil
}

// do runs the retry loop around single attempts. Only StatusError values with
// a retryable status re-enter the loop; timeouts, network failures, and all
// other statuses are terminal for the whole call.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, retryable bool, opts ...RequestOption) (any, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	fullURL := c.base + path
	multipart := contentType != "" && strings.HasPrefix(contentType, "multipart/")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffBase
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	retries := uint64(c.maxAttempts - 1)
	if !retryable {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)

	attempt := 0
	var result any
	op := func() error {
		attempt++
		v, err := c.attempt(ctx, method, fullURL, body, contentType, multipart, ro.headers)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Retryable() {
				return err
			}
			return backoff.Permanent(err)
		}
		result = v
		return nil
	}
	notify := func(err error, next time.Duration) {
		c.logger.Warn("retrying upstream request",
			"method", method, "url", fullURL, "attempt", attempt, "delay", next, "cause", err)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = &TimeoutError{Duration: c.timeout}
		}
		c.logger.Error("upstream request failed",
			"method", method, "url", fullURL, "attempts", attempt, "cause", err)
		return nil, err
	}
	return result, nil
}

// attempt issues one HTTP request and maps the outcome onto the failure
// taxonomy. Exactly one taxonomy error is produced per failed attempt.
func (c *Client) attempt(ctx context.Context, method, fullURL string, body []byte, contentType string, multipart bool, extra map[string]string) (any, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}

	// Composition order: base, credential, basic, content type, extras.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cred.Headers() {
		req.Header.Set(k, v)
	}
	if c.basic != nil {
		req.SetBasicAuth(c.basic.User, c.basic.Pass)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	if multipart {
		// The boundary-bearing content type always wins over caller headers.
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{Duration: c.timeout}
		}
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{Duration: c.timeout}
		}
		return nil, &TransportError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		parsed := bestEffortJSON(data)
		return nil, &StatusError{
			Status:  resp.StatusCode,
			Message: statusMessage(parsed, resp.StatusCode),
			Body:    parsed,
		}
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, &TransportError{Cause: fmt.Errorf("decoding JSON response: %w", err)}
		}
		return v, nil
	}
	return string(data), nil
}

// bestEffortJSON decodes data as JSON, falling back to the raw text.
func bestEffortJSON(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}

// statusMessage extracts a human-readable message from a parsed error body.
func statusMessage(parsed any, status int) string {
	if m, ok := parsed.(map[string]any); ok {
		if errs, ok := m["errors"].([]any); ok && len(errs) > 0 {
			parts := make([]string, 0, len(errs))
			for _, e := range errs {
				if s, ok := e.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
		if s, ok := m["error"].(string); ok && s != "" {
			return s
		}
	}
	return http.StatusText(status)
}
