package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthAPI is the session-scoped surface of the Indexer: account
// registration, login, and API key management. Calls authenticate with a
// jwt-account session token rather than an api_key, so the AuthAPI works
// before any key exists. It shares the data client's retry and rate-limit
// machinery.
type AuthAPI struct {
	*transport
}

// NewAuth creates a standalone AuthAPI. The credential store uses this to
// provision keys without a circular dependency on the data client.
func NewAuth(baseURL string, opts ...Option) *AuthAPI {
	return &AuthAPI{transport: newTransport(baseURL, opts...)}
}

// Register creates a new Indexer account and returns its session token.
func (a *AuthAPI) Register(ctx context.Context, login, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"login": login, "password": password})
	if err != nil {
		return "", fmt.Errorf("encoding register request: %w", err)
	}
	var out session
	if err := a.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, body, "", "", &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Login authenticates an existing account and returns a session token.
func (a *AuthAPI) Login(ctx context.Context, login, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"login": login, "password": password})
	if err != nil {
		return "", fmt.Errorf("encoding login request: %w", err)
	}
	var out session
	if err := a.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, body, "", "", &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// CreateAPIKey mints a new API key for the session's account.
func (a *AuthAPI) CreateAPIKey(ctx context.Context, token string) (string, error) {
	var out apiKeyResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/auth/keys", nil, nil, HeaderSessionToken, token, &out); err != nil {
		return "", err
	}
	return out.Key, nil
}

// ListAPIKeys returns the keys registered to the session's account.
func (a *AuthAPI) ListAPIKeys(ctx context.Context, token string) ([]string, error) {
	var out apiKeyList
	if err := a.do(ctx, http.MethodGet, "/api/v1/auth/keys", nil, nil, HeaderSessionToken, token, &out); err != nil {
		return nil, err
	}
	return out.Keys, nil
}
