package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"biblioteca/pkg/circuitbreaker"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

const (
	DefaultBaseURL        = "http://localhost:3000"
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 10 * time.Second
	DefaultRetryDelay     = 1000 * time.Millisecond

	requestIDHeader = "X-Request-ID"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the JSON collection backend. It holds configuration only
// and is safe to share; build one per process.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxAttempts    int
	attemptTimeout time.Duration
	retryDelay     time.Duration
	breaker        *circuitbreaker.CircuitBreaker
	logger         *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.attemptTimeout = d
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithCircuitBreaker routes every call through cb. A call counts as one
// failure only after all of its attempts failed.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		maxAttempts:    DefaultMaxAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		retryDelay:     DefaultRetryDelay,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a request to path (relative to the base URL) and decodes the JSON
// response into out, which may be nil. body, when not nil, is sent as JSON.
// Failed attempts are retried after a fixed delay; the error of the last
// attempt is returned once the attempts run out.
func (c *Client) Do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	if method == "" {
		method = http.MethodGet
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	call := func() error {
		data, err := c.retry(ctx, method, c.baseURL+path, payload, headers)
		if err != nil {
			return err
		}
		return decode(data, out)
	}
	if c.breaker == nil {
		return call()
	}
	return c.breaker.Execute(call)
}

func (c *Client) retry(ctx context.Context, method, url string, payload []byte, headers map[string]string) ([]byte, error) {
	requestID := uuid.NewString()
	log := c.logger.With("method", method, "url", url, "request_id", requestID)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := c.attempt(ctx, method, url, payload, headers, requestID)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var terr *TransportError
		if errors.As(err, &terr) {
			terr.Attempt = attempt
		}
		if ctx.Err() != nil {
			return nil, lastErr
		}

		switch {
		case attempt == c.maxAttempts:
			log.Error("request failed", "attempts", attempt, "error", err)
		case attempt == 1:
			log.Warn("request failed, retrying", "attempt", attempt, "max_attempts", c.maxAttempts, "error", err)
		default:
			log.Debug("request failed, retrying", "attempt", attempt, "error", err)
		}
	}
	return nil, lastErr
}

// attempt performs a single bounded HTTP exchange and returns the raw body.
func (c *Client) attempt(ctx context.Context, method, url string, payload []byte, headers map[string]string, requestID string) ([]byte, error) {
	actx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(actx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	fail := func(status int, err error) *TransportError {
		return &TransportError{
			Method:     method,
			URL:        url,
			StatusCode: status,
			Err:        err,
			timeout:    errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil,
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(data)))
	}
	return data, nil
}

// Probe issues one GET with its own timeout and no retries, returning the
// HTTP status. A non-2xx status is reported through the status, not err.
func (c *Client) Probe(ctx context.Context, path string, timeout time.Duration) (int, error) {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{
			Method:  http.MethodGet,
			URL:     url,
			Attempt: 1,
			Err:     err,
			timeout: errors.Is(pctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func snippet(data []byte) string {
	const max = 200
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
