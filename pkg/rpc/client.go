// Package rpc provides a JSON-RPC 2.0 client for the chain node endpoint.
//
// The client is stateless: every call builds a fresh request envelope, posts
// it with a bounded timeout, and classifies the outcome. Network-class
// failures are retried with exponential backoff; application errors (an
// error object in the JSON-RPC response) are returned as *RPCError and never
// retried.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults applied by New when no option overrides them.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 4
	DefaultBackoffBase = 250 * time.Millisecond
	DefaultSlowQuery   = 5 * time.Second
)

// Client is a JSON-RPC-over-HTTP client.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	timeout     time.Duration
	slowQuery   time.Duration
	maxAttempts int
	backoffBase time.Duration
	nextID      atomic.Int64
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetry sets the total attempt count (initial call included) and the
// base delay. Delays double per attempt with no jitter.
func WithRetry(maxAttempts int, base time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.backoffBase = base
	}
}

// WithSlowQueryThreshold sets the latency above which a completed call is
// logged at Warn.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(c *Client) { c.slowQuery = d }
}

// New creates a JSON-RPC client for the given endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		httpClient:  http.DefaultClient,
		timeout:     DefaultTimeout,
		slowQuery:   DefaultSlowQuery,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured node URL.
func (c *Client) Endpoint() string { return c.endpoint }

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Call issues a single JSON-RPC request and decodes the result field into
// out (out may be nil to discard the result). Network failures are retried
// with doubling backoff up to the configured attempt count; after exhaustion
// the returned error names the endpoint.
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	raw, err := c.call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffBase
	bo.Multiplier = 2
	bo.RandomizationFactor = 0 // strictly doubling, no jitter
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	var result json.RawMessage
	attempt := 0
	op := func() error {
		attempt++
		raw, err := c.post(ctx, method, body, attempt)
		if err != nil {
			if isNetworkError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = raw
		return nil
	}
	notify := func(err error, delay time.Duration) {
		slog.Debug("rpc call retrying",
			slog.String("method", method),
			slog.Int("attempt", attempt),
			slog.Int64("delay_ms", delay.Milliseconds()),
			slog.String("error", err.Error()),
		)
	}

	err = backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx),
		notify)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		if isNetworkError(err) {
			return nil, fmt.Errorf("rpc endpoint %s unreachable after %d attempts calling %s: %w",
				c.endpoint, attempt, method, err)
		}
		return nil, err
	}
	return result, nil
}

// post performs one HTTP round trip. The per-attempt context is released on
// every path.
func (c *Client) post(ctx context.Context, method string, body []byte, attempt int) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	if elapsed > c.slowQuery {
		slog.Warn("slow rpc query",
			slog.String("method", method),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
			slog.Int("attempt", attempt),
		)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, &httpStatusError{status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rpc endpoint returned HTTP %d: %s", resp.StatusCode, truncate(b, 256))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if r.Error != nil {
		return nil, r.Error
	}

	slog.Debug("rpc call completed",
		slog.String("method", method),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return r.Result, nil
}

// httpStatusError marks retriable HTTP statuses (429, 5xx).
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("rpc endpoint returned HTTP %d", e.status)
}

// isNetworkError reports whether err is a connection-level failure worth
// retrying: dial/DNS errors, resets, timeouts, truncated responses, and
// retriable HTTP statuses.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return false
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
