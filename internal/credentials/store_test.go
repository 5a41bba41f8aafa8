package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
)

// fakeAuth is an httptest Indexer auth surface with scriptable registration
// behavior and call counting.
type fakeAuth struct {
	mu            sync.Mutex
	registers     int
	logins        int
	keysCreated   int
	collideFirst  int  // reject this many registrations as duplicates
	rejectLogin   bool // fail all logins with 401
	lastRegister  string
	lastLoginUser string
}

func (f *fakeAuth) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.URL.Path == "/api/v1/auth/register":
			f.registers++
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			f.lastRegister = body["login"]
			if f.registers <= f.collideFirst {
				http.Error(w, "login already exists", http.StatusConflict)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"token": "reg-token"})
		case r.URL.Path == "/api/v1/auth/login":
			f.logins++
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			f.lastLoginUser = body["login"]
			if f.rejectLogin {
				http.Error(w, "bad credentials", http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"token": "login-token"})
		case r.URL.Path == "/api/v1/auth/keys" && r.Method == http.MethodPost:
			f.keysCreated++
			json.NewEncoder(w).Encode(map[string]string{"key": "key-" + time.Now().Format("150405.000000")})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestStore(t *testing.T, f *fakeAuth, cfg Config) (*Store, string) {
	t.Helper()
	srv := f.server(t)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "creds", "credentials.json")
	auth := indexer.NewAuth(srv.URL, indexer.WithRateLimit(1000), indexer.WithRetry(2, time.Millisecond))
	return NewStore(cfg, auth, WithPath(path)), path
}

func TestResolve_EnvAPIKeyWins(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{APIKey: "env-key", Login: "u", Password: "p"})

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-key", creds.APIKey)
	assert.Zero(t, f.logins, "env api key needs no network call")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "env key resolution must not persist")
}

func TestResolve_EnvLoginMintsAndPersists(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{Login: "operator", Password: "hunter2"})

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, creds.APIKey)
	assert.Equal(t, 1, f.logins)
	assert.Equal(t, "operator", f.lastLoginUser)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var stored Stored
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "operator", stored.Login)
	assert.Equal(t, creds.APIKey, stored.APIKey)
}

func TestResolve_FileCredentialsUsed(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{})

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	stored := Stored{Login: "old", Password: "pw", APIKey: "file-key", Created: time.Now()}
	data, _ := json.Marshal(stored)
	require.NoError(t, os.WriteFile(path, data, 0600))

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file-key", creds.APIKey)
	assert.Zero(t, f.registers, "valid file must short-circuit provisioning")
}

func TestResolve_MalformedFileFallsThroughToProvision(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{})

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, creds.APIKey)
	assert.Equal(t, 1, f.registers)
}

func TestResolve_LoginWithoutPasswordTreatedAsAbsent(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{})

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(`{"login":"solo","api_key":"k"}`), 0600))

	_, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.registers, "invariant-violating file falls through to provisioning")
}

func TestProvision_HappyPath(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{IndexerURL: "https://idx.example"})

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, creds.APIKey)
	assert.True(t, strings.HasPrefix(f.lastRegister, "lens-"))
	assert.Len(t, f.lastRegister, len("lens-")+12)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	var stored Stored
	data, _ := os.ReadFile(path)
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, f.lastRegister, stored.Login)
	assert.NotEmpty(t, stored.Password)
	assert.Equal(t, "https://idx.example", stored.IndexerURL)
}

func TestProvision_CollisionRetriesWithFreshLogin(t *testing.T) {
	f := &fakeAuth{collideFirst: 2}
	s, _ := newTestStore(t, f, Config{})

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, creds.APIKey)
	assert.Equal(t, 3, f.registers)
}

func TestProvision_NeverMoreThanThreeAttempts(t *testing.T) {
	f := &fakeAuth{collideFirst: 100}
	s, _ := newTestStore(t, f, Config{})

	_, err := s.Credentials(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, f.registers, "exactly 3 registration attempts before giving up")
	assert.Contains(t, err.Error(), "LEDGERLENS_LOGIN")
	assert.Contains(t, err.Error(), "LEDGERLENS_PASSWORD")
}

func TestRefresh_WithLoginMintsNewKeyAndPersists(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{})

	first, err := s.Credentials(context.Background())
	require.NoError(t, err)

	refreshed, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.APIKey, refreshed.APIKey)

	var stored Stored
	data, _ := os.ReadFile(path)
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, refreshed.APIKey, stored.APIKey, "only the api key field is replaced")
	assert.Equal(t, f.lastRegister, stored.Login)
}

func TestRefresh_APIKeyOnlyFailsFast(t *testing.T) {
	f := &fakeAuth{}
	s, _ := newTestStore(t, f, Config{APIKey: "bare-key"})

	_, err := s.Credentials(context.Background())
	require.NoError(t, err)

	_, err = s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be refreshed automatically")
	assert.Zero(t, f.logins)
}

func TestRuntimeOverride_SupersedesAndNeverPersists(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{APIKey: "env-key"})

	ctx := WithRuntime(context.Background(), &Runtime{APIKey: "override-key"})
	creds, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "override-key", creds.APIKey)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRuntimeOverride_IndexerURLCarriedThrough(t *testing.T) {
	f := &fakeAuth{}
	s, _ := newTestStore(t, f, Config{APIKey: "env-key"})

	ctx := WithRuntime(context.Background(), &Runtime{APIKey: "override-key", IndexerURL: "https://alt.indexer"})
	creds, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "override-key", creds.APIKey)
	assert.Equal(t, "https://alt.indexer", creds.BaseURL)
}

func TestRuntimeOverride_URLOnlyReusesStoredCredentials(t *testing.T) {
	f := &fakeAuth{}
	s, _ := newTestStore(t, f, Config{APIKey: "env-key"})

	ctx := WithRuntime(context.Background(), &Runtime{IndexerURL: "https://alt.indexer"})
	creds, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "env-key", creds.APIKey, "no credential override means the normal chain resolves")
	assert.Equal(t, "https://alt.indexer", creds.BaseURL)
}

func TestRuntimeOverride_LoginMintsWithoutPersisting(t *testing.T) {
	f := &fakeAuth{}
	s, path := newTestStore(t, f, Config{})

	ctx := WithRuntime(context.Background(), &Runtime{Login: "temp", Password: "pw"})
	creds, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, creds.APIKey)
	assert.Equal(t, 1, f.logins)

	refreshed, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.APIKey)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "override-minted keys stay off disk")
}

func TestRuntimeOverride_KeyOnlyRefreshFails(t *testing.T) {
	f := &fakeAuth{}
	s, _ := newTestStore(t, f, Config{})

	ctx := WithRuntime(context.Background(), &Runtime{APIKey: "ephemeral"})
	_, err := s.Refresh(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be refreshed automatically")
}

func TestConcurrentResolves_SingleProvision(t *testing.T) {
	f := &fakeAuth{}
	s, _ := newTestStore(t, f, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Credentials(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.registers, "concurrent resolutions collapse into one provision")
}
