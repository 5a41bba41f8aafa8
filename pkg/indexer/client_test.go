package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource counts resolutions and refreshes, rotating keys on refresh.
type fakeSource struct {
	mu         sync.Mutex
	key        string
	baseURL    string
	refreshed  string
	resolves   int
	refreshes  int
	refreshErr error
}

func (s *fakeSource) Credentials(context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolves++
	return Credentials{APIKey: s.key, BaseURL: s.baseURL}, nil
}

func (s *fakeSource) Refresh(context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.refreshErr != nil {
		return Credentials{}, s.refreshErr
	}
	s.key = s.refreshed
	return Credentials{APIKey: s.refreshed}, nil
}

func testClient(t *testing.T, srv *httptest.Server, source CredentialSource) *Client {
	t.Helper()
	return New(srv.URL, source,
		WithRetry(3, time.Millisecond),
		WithRateLimit(1000))
}

func TestGetAccount_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get(HeaderAPIKey))
		assert.Equal(t, "/api/v1/account/0xabc", r.URL.Path)
		json.NewEncoder(w).Encode(Account{Address: "0xabc", Balance: "0x64", Nonce: 7})
	}))
	defer srv.Close()

	c := testClient(t, srv, &fakeSource{key: "key-1"})
	acct, err := c.GetAccount(context.Background(), "0xabc")
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, uint64(7), acct.Nonce)
}

func TestGetAccount_NotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(t, srv, &fakeSource{key: "k"})
	acct, err := c.GetAccount(context.Background(), "0xmissing")
	require.NoError(t, err, "absence is not an error")
	assert.Nil(t, acct)
}

func TestAuthFailure_RefreshedOnceThenRetried(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		if r.Header.Get(HeaderAPIKey) != "fresh-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Committee{Size: 10, QuorumSize: 7})
	}))
	defer srv.Close()

	src := &fakeSource{key: "stale-key", refreshed: "fresh-key"}
	c := testClient(t, srv, src)

	committee, err := c.GetCommittee(context.Background())
	require.NoError(t, err)
	require.NotNil(t, committee)
	assert.Equal(t, 7, committee.QuorumSize)
	assert.Equal(t, 1, src.refreshes, "exactly one re-provision")
	assert.Equal(t, 2, calls, "original call plus exactly one retry")
}

func TestAuthFailure_SecondFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := &fakeSource{key: "bad", refreshed: "still-bad"}
	c := testClient(t, srv, src)

	_, err := c.GetCommittee(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 1, src.refreshes)
}

func TestAuthFailure_RefreshErrorSurfacesBoth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := &fakeSource{key: "bad", refreshErr: errors.New("no login/password available")}
	c := testClient(t, srv, src)

	_, err := c.GetCommittee(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
	assert.Contains(t, err.Error(), "no login/password available")
}

func TestRateLimited_RetriedWithBackoff(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(NetworkStats{TPS: 42})
	}))
	defer srv.Close()

	c := testClient(t, srv, &fakeSource{key: "k"})
	stats, err := c.GetNetworkStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(42), stats.TPS)
	assert.Equal(t, 3, calls)
}

func TestRetryBudgets_SeparatePerFailureClass(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			json.NewEncoder(w).Encode(NetworkStats{TPS: 1})
		}
	}))
	defer srv.Close()

	// Two attempts per class: a shared budget would give up after the 500.
	c := New(srv.URL, &fakeSource{key: "k"},
		WithRetry(2, time.Millisecond),
		WithRateLimit(1000))

	stats, err := c.GetNetworkStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(1), stats.TPS)
	assert.Equal(t, 3, calls)
}

func TestCredentialBaseURL_RedirectsCall(t *testing.T) {
	home := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("configured endpoint must not be hit when credentials carry a base URL")
	}))
	defer home.Close()

	alt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get(HeaderAPIKey))
		json.NewEncoder(w).Encode(NetworkStats{TPS: 9})
	}))
	defer alt.Close()

	c := testClient(t, home, &fakeSource{key: "k", baseURL: alt.URL + "/"})
	stats, err := c.GetNetworkStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(9), stats.TPS)
}

func TestBadRequest_NotRetried_FullContext(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad window bounds", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(t, srv, &fakeSource{key: "k"})
	_, err := c.GetReceiptsInWindow(context.Background(), 100, 50)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, http.MethodGet, apiErr.Method)
	assert.Equal(t, "/api/v1/receipts", apiErr.Path)
	assert.Contains(t, apiErr.Message, "bad window bounds")
	assert.Equal(t, 1, calls)
}

func TestUnreachable_SuggestsRPCAlternative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, &fakeSource{key: "k"},
		WithRetry(2, time.Millisecond),
		WithRateLimit(1000))

	_, err := c.GetReceipt(context.Background(), "0xdead")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Contains(t, err.Error(), "consider RPC alternative: eth_getTransactionReceipt")
}

func TestAuthAPI_RegisterAndCreateKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/register":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotEmpty(t, body["login"])
			assert.NotEmpty(t, body["password"])
			json.NewEncoder(w).Encode(map[string]string{"token": "sess-token"})
		case "/api/v1/auth/keys":
			assert.Equal(t, "sess-token", r.Header.Get(HeaderSessionToken))
			json.NewEncoder(w).Encode(map[string]string{"key": "new-api-key"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	auth := NewAuth(srv.URL, WithRateLimit(1000))
	token, err := auth.Register(context.Background(), "lens-abc", "secret")
	require.NoError(t, err)
	assert.Equal(t, "sess-token", token)

	key, err := auth.CreateAPIKey(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "new-api-key", key)
}

func TestStaticKey_RefreshFails(t *testing.T) {
	src := StaticKey("fixed")
	creds, err := src.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", creds.APIKey)

	_, err = src.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be refreshed automatically")
}

func TestRPCAlternative(t *testing.T) {
	alt, ok := RPCAlternative("/api/v1/account/0xabc")
	require.True(t, ok)
	assert.Equal(t, "eth_getBalance", alt)

	alt, ok = RPCAlternative("/api/v1/account/0xabc/logs")
	require.True(t, ok)
	assert.Equal(t, "eth_getLogs", alt)

	_, ok = RPCAlternative("/api/v1/auction/7")
	assert.False(t, ok, "no node-side equivalent for auctions")
}
