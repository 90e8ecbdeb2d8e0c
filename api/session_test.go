package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Triumph-Tech/magnus"
	"github.com/Triumph-Tech/magnus/stores"
)

// newLoginServer returns a test server whose login endpoint accepts
// admin/hunter2 and sets a Rock-style session cookie, plus a counter of
// login attempts it saw.
func newLoginServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var logins atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/Auth/Login", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, decodeBody(r, &body))
		if body.Username != "admin" || body.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: ".ROCK", Value: "session-" + body.Username})
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &logins
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return decodeJSON(buf, v)
}

func storedCreds(t *testing.T, serverURL string) magnus.CredentialStore {
	t.Helper()
	creds := stores.NewMemoryCredentialStore()
	require.NoError(t, creds.Set(serverURL, magnus.Credentials{Username: "admin", Password: "hunter2"}))
	return creds
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	srv, logins := newLoginServer(t)
	sessions := NewSessionStore(time.Second, storedCreds(t, srv.URL), nil)

	assert.True(t, sessions.Login(context.Background(), srv.URL, "admin", "hunter2"))
	assert.Equal(t, int32(1), logins.Load())

	token, err := sessions.EnsureSession(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, ".ROCK=session-admin", token)
	// Cached token means no further login
	assert.Equal(t, int32(1), logins.Load())
}

func TestLogin_UsesStoredCredentialsWhenNotSupplied(t *testing.T) {
	t.Parallel()

	srv, _ := newLoginServer(t)
	sessions := NewSessionStore(time.Second, storedCreds(t, srv.URL), nil)

	assert.True(t, sessions.Login(context.Background(), srv.URL, "", ""))
}

// Login reports false, never an error, for every failure mode.
func TestLogin_FailureModes(t *testing.T) {
	t.Parallel()

	t.Run("rejected credentials", func(t *testing.T) {
		srv, _ := newLoginServer(t)
		sessions := NewSessionStore(time.Second, nil, nil)
		assert.False(t, sessions.Login(context.Background(), srv.URL, "admin", "wrong"))
	})

	t.Run("no session cookie in response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "unrelated", Value: "x"})
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)
		sessions := NewSessionStore(time.Second, nil, nil)
		assert.False(t, sessions.Login(context.Background(), srv.URL, "admin", "hunter2"))
	})

	t.Run("server unreachable", func(t *testing.T) {
		sessions := NewSessionStore(100*time.Millisecond, nil, nil)
		assert.False(t, sessions.Login(context.Background(), "http://127.0.0.1:1", "admin", "hunter2"))
	})

	t.Run("no stored credentials", func(t *testing.T) {
		srv, logins := newLoginServer(t)
		sessions := NewSessionStore(time.Second, stores.NewMemoryCredentialStore(), nil)
		assert.False(t, sessions.Login(context.Background(), srv.URL, "", ""))
		assert.Equal(t, int32(0), logins.Load(), "must not hit the server without credentials")
	})
}

// Two EnsureSession calls in immediate succession with no prior cached
// token result in exactly one login; the second call is a cache hit.
func TestEnsureSession_SecondCallHitsCache(t *testing.T) {
	t.Parallel()

	srv, logins := newLoginServer(t)
	sessions := NewSessionStore(time.Second, storedCreds(t, srv.URL), nil)

	first, err := sessions.EnsureSession(context.Background(), srv.URL)
	require.NoError(t, err)
	second, err := sessions.EnsureSession(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
	assert.Equal(t, int32(1), logins.Load())
}

func TestEnsureSession_ConcurrentMissesCollapse(t *testing.T) {
	t.Parallel()

	srv, logins := newLoginServer(t)
	sessions := NewSessionStore(time.Second, storedCreds(t, srv.URL), nil)

	const callers = 8
	tokens := make(chan string, callers)
	for range callers {
		go func() {
			token, err := sessions.EnsureSession(context.Background(), srv.URL)
			assert.NoError(t, err)
			tokens <- token
		}()
	}
	for range callers {
		assert.Equal(t, ".ROCK=session-admin", <-tokens)
	}
	assert.Equal(t, int32(1), logins.Load(), "concurrent misses must share one login")
}

func TestEnsureSession_NoCredentialsAnywhere(t *testing.T) {
	t.Parallel()

	srv, _ := newLoginServer(t)
	sessions := NewSessionStore(time.Second, stores.NewMemoryCredentialStore(), nil)

	_, err := sessions.EnsureSession(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestInvalidate_ForcesRelogin(t *testing.T) {
	t.Parallel()

	srv, logins := newLoginServer(t)
	sessions := NewSessionStore(time.Second, storedCreds(t, srv.URL), nil)

	_, err := sessions.EnsureSession(context.Background(), srv.URL)
	require.NoError(t, err)
	sessions.Invalidate(srv.URL)
	_, err = sessions.EnsureSession(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, int32(2), logins.Load())
}
