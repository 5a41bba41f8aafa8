// Package indexer provides an authenticated client for the Indexer REST API.
//
// The Indexer is the chain's enriched, paginated data surface. All data calls
// carry an api_key header; session-scoped calls (register, login, key
// management) carry a jwt-account token instead. The client transparently
// recovers from credential expiry (one re-provision, one retry) and from rate
// limiting and transient network failures (bounded exponential backoff).
package indexer

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
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Authentication headers per the Indexer wire format.
const (
	HeaderAPIKey       = "api_key"
	HeaderSessionToken = "jwt-account"
)

// Defaults applied when no option overrides them.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 4
	DefaultBackoffBase = 250 * time.Millisecond
	DefaultSlowQuery   = 5 * time.Second
	DefaultRPS         = 10
)

// errNotFound marks a 404. Lookups convert it to a nil result because
// absence is a normal outcome, not a failure.
var errNotFound = errors.New("indexer: not found")

// Credentials is the material a data call authenticates with. BaseURL, when
// set, redirects that call to a different Indexer than the client was
// constructed with.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// CredentialSource resolves credentials before a data call and refreshes
// them after an authentication failure. Implementations must be safe for
// concurrent use.
type CredentialSource interface {
	// Credentials returns the active API key, provisioning one if needed.
	Credentials(ctx context.Context) (Credentials, error)
	// Refresh obtains a fresh API key after the current one was rejected.
	Refresh(ctx context.Context) (Credentials, error)
}

// StaticKey is a CredentialSource wrapping a fixed API key. Refresh fails
// because a bare key cannot be re-provisioned without login credentials.
type StaticKey string

// Credentials implements CredentialSource.
func (k StaticKey) Credentials(context.Context) (Credentials, error) {
	return Credentials{APIKey: string(k)}, nil
}

// Refresh implements CredentialSource.
func (k StaticKey) Refresh(context.Context) (Credentials, error) {
	return Credentials{}, errors.New("api key was rejected and cannot be refreshed automatically: no login/password available")
}

// transport is the retrying HTTP machinery shared by the data client and the
// session-scoped auth API.
type transport struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	timeout     time.Duration
	slowQuery   time.Duration
	maxAttempts int
	backoffBase time.Duration
}

// Client is the authenticated Indexer data client.
type Client struct {
	*transport
	source CredentialSource
}

// Option is a functional option for configuring the Client.
type Option func(*transport)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *transport) { t.httpClient = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *transport) { t.timeout = d }
}

// WithRetry sets the total attempt count (initial call included) and the
// base backoff delay.
func WithRetry(maxAttempts int, base time.Duration) Option {
	return func(t *transport) {
		t.maxAttempts = maxAttempts
		t.backoffBase = base
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps int) Option {
	return func(t *transport) { t.limiter = rate.NewLimiter(rate.Limit(rps), rps) }
}

// WithSlowQueryThreshold sets the latency above which a completed call is
// logged at Warn.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(t *transport) { t.slowQuery = d }
}

func newTransport(baseURL string, opts ...Option) *transport {
	t := &transport{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  http.DefaultClient,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRPS), DefaultRPS),
		timeout:     DefaultTimeout,
		slowQuery:   DefaultSlowQuery,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New creates an Indexer client. The source provides and refreshes the API
// key; use credentials.Store for the full resolution chain or StaticKey for
// a fixed key.
func New(baseURL string, source CredentialSource, opts ...Option) *Client {
	return &Client{transport: newTransport(baseURL, opts...), source: source}
}

// Auth returns the session-scoped API sharing this client's transport.
func (c *Client) Auth() *AuthAPI {
	return &AuthAPI{transport: c.transport}
}

// BaseURL returns the configured Indexer URL.
func (c *Client) BaseURL() string { return c.baseURL }

// get issues an authenticated GET, decoding the JSON body into out.
// A 401/403 triggers exactly one credential refresh and one retry of the
// call; a second auth failure propagates.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	creds, err := c.source.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("resolving indexer credentials: %w", err)
	}

	err = c.forCredentials(creds).do(ctx, http.MethodGet, path, query, nil, HeaderAPIKey, creds.APIKey, out)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return err
	}

	slog.Warn("indexer rejected credentials, re-provisioning",
		slog.String("path", path),
		slog.Int("status", authErr.StatusCode),
	)
	fresh, rerr := c.source.Refresh(ctx)
	if rerr != nil {
		return fmt.Errorf("%w; refresh failed: %w", err, rerr)
	}
	return c.forCredentials(fresh).do(ctx, http.MethodGet, path, query, nil, HeaderAPIKey, fresh.APIKey, out)
}

// forCredentials returns the transport to use for the given credentials,
// swapping the base URL when the credentials carry an override. The limiter
// and HTTP client are shared either way.
func (c *Client) forCredentials(creds Credentials) *transport {
	if creds.BaseURL == "" {
		return c.transport
	}
	t := *c.transport
	t.baseURL = strings.TrimSuffix(creds.BaseURL, "/")
	return &t
}

// do runs one logical request with retry. Rate-limit (429) and network-class
// failures retry with doubling backoff on separate budgets, so a run of
// timeouts cannot exhaust the rate-limit allowance or the reverse. 400,
// 401/403, and 404 are terminal.
func (t *transport) do(ctx context.Context, method, path string, query url.Values, body []byte, authHeader, authValue string, out any) error {
	newBackOff := func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = t.backoffBase
		bo.Multiplier = 2
		bo.RandomizationFactor = 0
		bo.MaxInterval = 30 * time.Second
		bo.MaxElapsedTime = 0
		return bo
	}
	rateBO, netBO := newBackOff(), newBackOff()

	var attempt, rateFailures, netFailures int
	for {
		attempt++
		err := t.roundTrip(ctx, method, path, query, body, authHeader, authValue, out)
		if err == nil {
			return nil
		}

		var rl *rateLimitError
		rateLimited := errors.As(err, &rl)

		var failures *int
		var delay time.Duration
		event := "indexer call retrying"
		switch {
		case rateLimited:
			failures, delay = &rateFailures, rateBO.NextBackOff()
			event = "indexer rate limited, backing off"
		case isRetriable(err):
			failures, delay = &netFailures, netBO.NextBackOff()
		default:
			return err
		}

		*failures++
		if *failures >= t.maxAttempts {
			if rateLimited {
				return fmt.Errorf("indexer rate limited after %d attempts on %s: %w", attempt, path, err)
			}
			msg := fmt.Sprintf("indexer %s unreachable after %d attempts on %s", t.baseURL, attempt, path)
			if alt, ok := RPCAlternative(path); ok {
				msg += fmt.Sprintf(", consider RPC alternative: %s", alt)
			}
			return fmt.Errorf("%s: %w", msg, err)
		}

		slog.Debug(event,
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Int64("delay_ms", delay.Milliseconds()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// roundTrip performs a single HTTP exchange. The attempt context and the
// response body are released on every path, including error paths.
func (t *transport) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte, authHeader, authValue string, out any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authValue != "" {
		req.Header.Set(authHeader, authValue)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	if elapsed > t.slowQuery {
		slog.Warn("slow indexer query",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return errNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return &AuthError{StatusCode: resp.StatusCode, Path: path}
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return &rateLimitError{path: path}
	case resp.StatusCode == http.StatusBadRequest:
		b, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode:  resp.StatusCode,
			Method:      method,
			Path:        path,
			Message:     strings.TrimSpace(string(b)),
			RequestBody: string(body),
		}
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return &serverError{status: resp.StatusCode, path: path}
	case resp.StatusCode >= 400:
		b, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    strings.TrimSpace(string(b)),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	slog.Debug("indexer call completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return nil
}

// serverError marks a retriable 5xx.
type serverError struct {
	status int
	path   string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("indexer returned %d on %s", e.status, e.path)
}

// isRetriable reports whether the failure class is worth another attempt:
// rate limiting, 5xx, and connection-level errors.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	var rl *rateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var srv *serverError
	if errors.As(err, &srv) {
		return true
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, errNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
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

// absent converts the not-found sentinel into a clean miss.
func absent(err error) (bool, error) {
	if errors.Is(err, errNotFound) {
		return true, nil
	}
	return false, err
}
