// Package credentials manages authentication material for the Indexer API.
//
// Resolution order, highest priority first: per-call runtime override,
// LEDGERLENS_API_KEY, LEDGERLENS_LOGIN/LEDGERLENS_PASSWORD, the persisted
// credentials file, auto-provisioning a fresh account. Credentials are
// created once and only mutated when an authentication failure forces
// re-provisioning; they are never deleted automatically.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"golang.org/x/sync/singleflight"

	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
)

// Stored is the credential record persisted on disk. Login and password are
// both present or both absent; APIKey empty means "not yet generated".
type Stored struct {
	Login      string    `json:"login,omitempty"`
	Password   string    `json:"password,omitempty"`
	APIKey     string    `json:"api_key"`
	Created    time.Time `json:"created"`
	IndexerURL string    `json:"indexer_url"`
}

// complete reports whether the record can authenticate a data call.
func (s Stored) complete() bool {
	return s.APIKey != "" || s.hasLogin()
}

func (s Stored) hasLogin() bool {
	return s.Login != "" && s.Password != ""
}

// source records where the active credentials came from. Only file- and
// provision-sourced credentials (and env logins) are persisted on refresh.
type source int

const (
	sourceNone source = iota
	sourceOverride
	sourceEnvKey
	sourceEnvLogin
	sourceFile
	sourceProvisioned
)

// Config carries the environment-derived inputs to resolution.
type Config struct {
	APIKey     string
	Login      string
	Password   string
	IndexerURL string
}

// Store resolves, provisions, and persists credentials. It implements
// indexer.CredentialSource. Safe for concurrent use: concurrent initial
// resolutions and concurrent refresh attempts each collapse into a single
// upstream call.
type Store struct {
	cfg  Config
	auth *indexer.AuthAPI
	path string

	mu     sync.RWMutex
	active *Stored
	from   source

	group singleflight.Group
}

// Option configures the Store.
type Option func(*Store)

// WithPath overrides the credentials file location.
func WithPath(path string) Option {
	return func(s *Store) { s.path = path }
}

// DefaultPath is the fixed credentials file location under the user's home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "ledgerlens", "credentials.json")
}

// NewStore creates a Store backed by the given auth API.
func NewStore(cfg Config, auth *indexer.AuthAPI, opts ...Option) *Store {
	s := &Store{
		cfg:  cfg,
		auth: auth,
		path: DefaultPath(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credentials implements indexer.CredentialSource. The first call resolves
// per the priority order; later calls return the cached resolution. A
// runtime override on the context supersedes everything for that call only.
func (s *Store) Credentials(ctx context.Context) (indexer.Credentials, error) {
	if ov, ok := runtimeFrom(ctx); ok {
		if ov.APIKey != "" || ov.hasLogin() {
			stored, err := s.resolveOverride(ctx, ov)
			if err != nil {
				return indexer.Credentials{}, err
			}
			return indexer.Credentials{APIKey: stored.APIKey, BaseURL: ov.IndexerURL}, nil
		}
		// URL-only override: the stored credentials aimed at another Indexer.
		creds, err := s.resolved(ctx)
		if err != nil {
			return indexer.Credentials{}, err
		}
		creds.BaseURL = ov.IndexerURL
		return creds, nil
	}
	return s.resolved(ctx)
}

// resolved returns the cached resolution, running the priority chain once.
func (s *Store) resolved(ctx context.Context) (indexer.Credentials, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active != nil {
		return indexer.Credentials{APIKey: active.APIKey}, nil
	}

	v, err, _ := s.group.Do("resolve", func() (any, error) {
		s.mu.RLock()
		cached := s.active
		s.mu.RUnlock()
		if cached != nil {
			return *cached, nil
		}
		stored, from, err := s.resolve(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.active = &stored
		s.from = from
		s.mu.Unlock()
		return stored, nil
	})
	if err != nil {
		return indexer.Credentials{}, err
	}
	return indexer.Credentials{APIKey: v.(Stored).APIKey}, nil
}

// Refresh implements indexer.CredentialSource: recover from an auth failure
// by minting a new API key. Only possible when a login/password pair is
// available; a bare API key fails fast. Refreshed credentials are persisted
// unless they came from a runtime override.
func (s *Store) Refresh(ctx context.Context) (indexer.Credentials, error) {
	if ov, ok := runtimeFrom(ctx); ok {
		if !ov.hasLogin() {
			return indexer.Credentials{}, errors.New(
				"runtime api key was rejected and cannot be refreshed automatically: supply login/password in the override")
		}
		key, err := s.mintKey(ctx, ov.Login, ov.Password)
		if err != nil {
			return indexer.Credentials{}, err
		}
		// Never persisted: runtime overrides stay off disk.
		return indexer.Credentials{APIKey: key, BaseURL: ov.IndexerURL}, nil
	}

	v, err, _ := s.group.Do("refresh", func() (any, error) {
		s.mu.RLock()
		active := s.active
		from := s.from
		s.mu.RUnlock()

		if active == nil {
			stored, from, err := s.resolve(ctx)
			if err != nil {
				return nil, err
			}
			s.mu.Lock()
			s.active = &stored
			s.from = from
			s.mu.Unlock()
			return stored, nil
		}
		if !active.hasLogin() {
			return nil, errors.New(
				"api key was rejected and cannot be refreshed automatically: " +
					"set LEDGERLENS_LOGIN and LEDGERLENS_PASSWORD to enable key rotation")
		}

		key, err := s.mintKey(ctx, active.Login, active.Password)
		if err != nil {
			return nil, fmt.Errorf("re-provisioning api key: %w", err)
		}

		refreshed := *active
		refreshed.APIKey = key
		if from != sourceOverride {
			if err := s.persist(ctx, refreshed); err != nil {
				return nil, err
			}
		}
		s.mu.Lock()
		s.active = &refreshed
		s.mu.Unlock()
		slog.Info("indexer api key re-provisioned", slog.String("login", refreshed.Login))
		return refreshed, nil
	})
	if err != nil {
		return indexer.Credentials{}, err
	}
	return indexer.Credentials{APIKey: v.(Stored).APIKey}, nil
}

// resolve walks the priority chain below runtime overrides.
func (s *Store) resolve(ctx context.Context) (Stored, source, error) {
	if s.cfg.APIKey != "" {
		return Stored{APIKey: s.cfg.APIKey, IndexerURL: s.cfg.IndexerURL}, sourceEnvKey, nil
	}

	if s.cfg.Login != "" && s.cfg.Password != "" {
		key, err := s.mintKey(ctx, s.cfg.Login, s.cfg.Password)
		if err != nil {
			return Stored{}, sourceNone, fmt.Errorf("logging in with LEDGERLENS_LOGIN: %w", err)
		}
		stored := Stored{
			Login:      s.cfg.Login,
			Password:   s.cfg.Password,
			APIKey:     key,
			Created:    time.Now().UTC(),
			IndexerURL: s.cfg.IndexerURL,
		}
		if err := s.persist(ctx, stored); err != nil {
			return Stored{}, sourceNone, err
		}
		return stored, sourceEnvLogin, nil
	}

	if stored, ok := s.load(); ok {
		if stored.APIKey == "" {
			// Key never minted (or wiped); the stored login can mint one.
			key, err := s.mintKey(ctx, stored.Login, stored.Password)
			if err != nil {
				return Stored{}, sourceNone, fmt.Errorf("minting key for stored login: %w", err)
			}
			stored.APIKey = key
			if err := s.persist(ctx, stored); err != nil {
				return Stored{}, sourceNone, err
			}
		}
		return stored, sourceFile, nil
	}

	stored, err := s.provision(ctx)
	if err != nil {
		return Stored{}, sourceNone, err
	}
	return stored, sourceProvisioned, nil
}

// resolveOverride turns a runtime override into usable credentials for this
// call only. Nothing touches the cache or the disk.
func (s *Store) resolveOverride(ctx context.Context, ov *Runtime) (Stored, error) {
	if ov.APIKey != "" {
		return Stored{APIKey: ov.APIKey, IndexerURL: ov.IndexerURL}, nil
	}
	if ov.hasLogin() {
		key, err := s.mintKey(ctx, ov.Login, ov.Password)
		if err != nil {
			return Stored{}, fmt.Errorf("logging in with runtime credentials: %w", err)
		}
		return Stored{Login: ov.Login, Password: ov.Password, APIKey: key, IndexerURL: ov.IndexerURL}, nil
	}
	return Stored{}, errors.New("runtime credential override must carry an api key or a login/password pair")
}

// mintKey logs in and creates a fresh API key.
func (s *Store) mintKey(ctx context.Context, login, password string) (string, error) {
	token, err := s.auth.Login(ctx, login, password)
	if err != nil {
		return "", err
	}
	return s.auth.CreateAPIKey(ctx, token)
}

// load reads the persisted credentials. Malformed or incomplete files are
// treated as absent rather than fatal.
func (s *Store) load() (Stored, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("credentials file unreadable, ignoring", slog.String("path", s.path), slog.String("error", err.Error()))
		}
		return Stored{}, false
	}

	var stored Stored
	if err := json.Unmarshal(data, &stored); err != nil {
		slog.Warn("credentials file malformed, ignoring", slog.String("path", s.path))
		return Stored{}, false
	}
	// login without password (or vice versa) violates the record invariant
	if (stored.Login == "") != (stored.Password == "") {
		slog.Warn("credentials file incomplete, ignoring", slog.String("path", s.path))
		return Stored{}, false
	}
	if !stored.complete() {
		return Stored{}, false
	}
	return stored, true
}

// persist writes the record under a file lock, creating the file with
// owner-only permissions up front so there is never a readable window.
// I/O errors are fatal to the call that triggered them.
func (s *Store) persist(ctx context.Context, stored Stored) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("locking credentials file: %w", err)
	}
	if !locked {
		return errors.New("locking credentials file: timeout")
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening credentials file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing credentials file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing credentials file: %w", err)
	}
	return nil
}
