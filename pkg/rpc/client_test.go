package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyTransport fails the first n round trips with a connection error, then
// delegates to the real transport. It records when each attempt arrived.
type flakyTransport struct {
	mu       sync.Mutex
	failures int
	attempts []time.Time
	inner    http.RoundTripper
}

func (t *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.attempts = append(t.attempts, time.Now())
	fail := len(t.attempts) <= t.failures
	t.mu.Unlock()

	if fail {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return t.inner.RoundTrip(req)
}

func rpcServer(t *testing.T, handler func(method string, params json.RawMessage) (any, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string          `json:"jsonrpc"`
			Method  string          `json:"method"`
			Params  json.RawMessage `json:"params"`
			ID      json.RawMessage `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(req.ID)}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCall_Success(t *testing.T) {
	srv := rpcServer(t, func(method string, params json.RawMessage) (any, *RPCError) {
		assert.Equal(t, "eth_blockNumber", method)
		return "0x10", nil
	})
	defer srv.Close()

	c := New(srv.URL)
	n, err := c.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)
}

func TestCall_RPCErrorNotRetried(t *testing.T) {
	calls := 0
	srv := rpcServer(t, func(method string, params json.RawMessage) (any, *RPCError) {
		calls++
		return nil, &RPCError{Code: -32601, Message: "method not found"}
	})
	defer srv.Close()

	c := New(srv.URL, WithRetry(4, time.Millisecond))
	err := c.Call(context.Background(), "bogus_method", nil, nil)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Equal(t, 1, calls, "application errors must not be retried")
}

func TestCall_NetworkErrorRetriedThenSucceeds(t *testing.T) {
	srv := rpcServer(t, func(method string, params json.RawMessage) (any, *RPCError) {
		return "0x1", nil
	})
	defer srv.Close()

	ft := &flakyTransport{failures: 3, inner: http.DefaultTransport}
	c := New(srv.URL,
		WithHTTPClient(&http.Client{Transport: ft}),
		WithRetry(4, 10*time.Millisecond))

	var out string
	err := c.Call(context.Background(), "eth_chainId", nil, &out)
	require.NoError(t, err, "caller must see the eventual success")
	assert.Equal(t, "0x1", out)
	assert.Len(t, ft.attempts, 4)

	// delays between attempts must strictly double: ~10ms, ~20ms, ~40ms
	var gaps []time.Duration
	for i := 1; i < len(ft.attempts); i++ {
		gaps = append(gaps, ft.attempts[i].Sub(ft.attempts[i-1]))
	}
	for i := 1; i < len(gaps); i++ {
		assert.Greater(t, gaps[i], gaps[i-1], "backoff delays must strictly increase")
	}
	assert.GreaterOrEqual(t, gaps[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[2], 40*time.Millisecond)
}

func TestCall_RetriesExhaustedNamesEndpoint(t *testing.T) {
	ft := &flakyTransport{failures: 100, inner: http.DefaultTransport}
	c := New("http://node.invalid:8545",
		WithHTTPClient(&http.Client{Transport: ft}),
		WithRetry(3, time.Millisecond))

	err := c.Call(context.Background(), "eth_blockNumber", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http://node.invalid:8545")
	assert.Contains(t, err.Error(), "unreachable")
	assert.Len(t, ft.attempts, 3)
}

func TestCall_ServerErrorRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x5"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(4, time.Millisecond))
	var out string
	require.NoError(t, c.Call(context.Background(), "eth_gasPrice", nil, &out))
	assert.Equal(t, "0x5", out)
	assert.Equal(t, 2, calls)
}

func TestCall_BadRequestNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "malformed", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(4, time.Millisecond))
	err := c.Call(context.Background(), "eth_blockNumber", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Equal(t, 1, calls)
}

func TestParseHexUint64(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x0", 0, false},
		{"0x10", 16, false},
		{"0xff", 255, false},
		{"ff", 255, false},
		{"0x", 0, true},
		{"", 0, true},
		{"0xzz", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHexUint64(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHasCode(t *testing.T) {
	assert.False(t, HasCode(""))
	assert.False(t, HasCode("0x"))
	assert.False(t, HasCode("0x0"))
	assert.True(t, HasCode("0x6080604052"))
}
