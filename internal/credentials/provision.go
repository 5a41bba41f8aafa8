package credentials

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
)

// Auto-provisioning parameters.
const (
	loginPrefix      = "lens-"
	loginRandomBytes = 9  // 12 base64url characters
	passwordBytes    = 32 // random password material
	registerAttempts = 3
)

// provision registers a brand-new Indexer account with a random login and
// password, mints its first API key, and persists the result. A login
// collision with an existing account retries with a fresh login, up to
// registerAttempts total; afterwards the operator is told to set explicit
// credentials instead.
func (s *Store) provision(ctx context.Context) (Stored, error) {
	var lastErr error
	for attempt := 1; attempt <= registerAttempts; attempt++ {
		login := loginPrefix + randomToken(loginRandomBytes)
		password := randomToken(passwordBytes)

		token, err := s.auth.Register(ctx, login, password)
		if err != nil {
			if isLoginCollision(err) {
				slog.Debug("generated login collided, retrying",
					slog.String("login", login),
					slog.Int("attempt", attempt),
				)
				lastErr = err
				continue
			}
			return Stored{}, fmt.Errorf("registering indexer account: %w", err)
		}

		key, err := s.auth.CreateAPIKey(ctx, token)
		if err != nil {
			return Stored{}, fmt.Errorf("creating api key for new account: %w", err)
		}

		stored := Stored{
			Login:      login,
			Password:   password,
			APIKey:     key,
			Created:    time.Now().UTC(),
			IndexerURL: s.cfg.IndexerURL,
		}
		if err := s.persist(ctx, stored); err != nil {
			return Stored{}, err
		}
		slog.Info("provisioned new indexer account", slog.String("login", login))
		return stored, nil
	}

	return Stored{}, fmt.Errorf(
		"auto-provisioning failed after %d registration attempts (login collisions); "+
			"set LEDGERLENS_LOGIN and LEDGERLENS_PASSWORD environment variables to use an existing account: %w",
		registerAttempts, lastErr)
}

// isLoginCollision detects a registration rejected because the generated
// login already names an account: HTTP 400/409 with a duplicate keyword in
// the body.
func isLoginCollision(err error) bool {
	var apiErr *indexer.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode != http.StatusBadRequest && apiErr.StatusCode != http.StatusConflict {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	for _, kw := range []string{"duplicate", "exists", "already"} {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// randomToken returns n random bytes encoded as unpadded base64url.
func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand read failures are unrecoverable process-level problems
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
