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

	"github.com/Triumph-Tech/magnus/config"
)

// apiServer is a minimal Magnus server double: cookie login plus
// whatever protected handlers a test mounts on its mux.
type apiServer struct {
	*httptest.Server
	mux *http.ServeMux

	logins  atomic.Int32
	session atomic.Int32 // bump to invalidate all outstanding cookies
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()

	srv := &apiServer{mux: http.NewServeMux()}
	srv.session.Store(1)

	root := http.NewServeMux()
	root.HandleFunc("POST /api/Auth/Login", func(w http.ResponseWriter, r *http.Request) {
		srv.logins.Add(1)
		http.SetCookie(w, &http.Cookie{Name: ".ROCK", Value: srv.token()})
		w.WriteHeader(http.StatusNoContent)
	})
	root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(".ROCK"); err != nil || cookie.Value != srv.token() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		srv.mux.ServeHTTP(w, r)
	})

	srv.Server = httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return srv
}

func (s *apiServer) token() string {
	return "session-" + string(rune('0'+s.session.Load()))
}

func (s *apiServer) expireSessions() {
	s.session.Add(1)
}

func newTestClient(t *testing.T, srv *apiServer) *Client {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.ReadTimeout = 2 * time.Second
	cfg.ActionTimeout = 2 * time.Second
	sessions := NewSessionStore(time.Second, storedCreds(t, srv.URL), nil)
	return NewClient(cfg, sessions)
}

func TestGetChildItems_RootListing(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	srv.mux.HandleFunc("GET /api/TriumphTech/Magnus/GetTreeItems", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"DisplayName": "Pages", "Uri": "/api/TriumphTech/Magnus/GetChildren/1", "IsFolder": true},
			{"DisplayName": "home.lava", "Uri": "/GetItem/2", "IsFolder": false, "EditUri": "/Edit/2"}
		]`))
	})
	client := newTestClient(t, srv)

	items, err := client.GetChildItems(context.Background(), srv.URL, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Pages", items[0].DisplayName)
	assert.True(t, items[0].IsFolder)
	assert.True(t, items[1].Capabilities().Edit)
	assert.False(t, items[1].Capabilities().Delete)
}

func TestGetChildItems_ExplicitPath(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	srv.mux.HandleFunc("GET /api/TriumphTech/Magnus/GetChildren/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"DisplayName": "child", "Uri": "/GetItem/8"}]`))
	})
	client := newTestClient(t, srv)

	items, err := client.GetChildItems(context.Background(), srv.URL, "/api/TriumphTech/Magnus/GetChildren/7")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "child", items[0].DisplayName)
}

func TestGetServerDescriptor(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	srv.mux.HandleFunc("GET /api/TriumphTech/Magnus/GetServerInfo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"DisplayName": "Demo Server", "IsFolder": true, "IconUrl": "$(server)"}`))
	})
	client := newTestClient(t, srv)

	item, err := client.GetServerDescriptor(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Demo Server", item.DisplayName)
	assert.Equal(t, "$(server)", item.IconURL)
}

func TestStatusClassification(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	srv.mux.HandleFunc("GET /missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv.mux.HandleFunc("GET /forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv.mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("stack trace here"))
	})
	client := newTestClient(t, srv)
	ctx := context.Background()

	_, err := client.GetFileContent(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetFileContent(ctx, srv.URL+"/forbidden")
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = client.GetFileContent(ctx, srv.URL+"/broken")
	var unexpected *UnexpectedResponseError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, http.StatusInternalServerError, unexpected.StatusCode)
	assert.Equal(t, "stack trace here", unexpected.Body)
}

// A request whose session has expired server-side triggers exactly one
// transparent re-login and then succeeds.
func TestDo_ReloginOnExpiredSession(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	srv.mux.HandleFunc("GET /file", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("content"))
	})
	client := newTestClient(t, srv)
	ctx := context.Background()

	data, err := client.GetFileContent(ctx, srv.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	require.Equal(t, int32(1), srv.logins.Load())

	srv.expireSessions()

	data, err = client.GetFileContent(ctx, srv.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.Equal(t, int32(2), srv.logins.Load(), "exactly one re-login")
}

func TestGetFileStat_HeadSupported(t *testing.T) {
	t.Parallel()

	modified := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	srv := newAPIServer(t)
	srv.mux.HandleFunc("HEAD /file", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "42")
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
		w.Header().Set("X-Magnus-Readonly", "true")
	})
	client := newTestClient(t, srv)

	stat, err := client.GetFileStat(context.Background(), srv.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, int64(42), stat.Size)
	assert.True(t, stat.ModifiedTime.Equal(modified))
	assert.True(t, stat.ReadOnly)
}

// Servers that reject metadata-only requests get a full content request
// instead; size comes from content-length and dates from the date header.
// A missing content-length resolves to size 0, not an error.
func TestGetFileStat_FallbackToGet(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	srv := newAPIServer(t)
	srv.mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Date", date.Format(http.TimeFormat))
		// Chunked transfer: no content-length on the wire
		w.Header().Set("Transfer-Encoding", "chunked")
		_, _ = w.Write([]byte("body ignored for stat"))
	})
	client := newTestClient(t, srv)

	stat, err := client.GetFileStat(context.Background(), srv.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stat.Size)
	assert.True(t, stat.ModifiedTime.Equal(date))
	assert.True(t, stat.CreatedTime.Equal(date))
	assert.False(t, stat.ReadOnly)
}

func TestGetFileContent_And_Update(t *testing.T) {
	t.Parallel()

	var stored atomic.Value
	stored.Store([]byte("v1"))

	srv := newAPIServer(t)
	srv.mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write(stored.Load().([]byte))
		case http.MethodPut:
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			stored.Store(body)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	client := newTestClient(t, srv)
	ctx := context.Background()

	data, err := client.GetFileContent(ctx, srv.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	require.NoError(t, client.UpdateFileContent(ctx, srv.URL+"/file", []byte("v2")))

	data, err = client.GetFileContent(ctx, srv.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestRunAction(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	srv.mux.HandleFunc("POST /build/9", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ResponseMessage": "queued", "IsAsynchronous": true, "ActionSuccessful": true}`))
	})
	srv.mux.HandleFunc("DELETE /empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, srv)
	ctx := context.Background()

	action, err := client.RunAction(ctx, http.MethodPost, srv.URL+"/build/9", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "queued", action.ResponseMessage)
	assert.True(t, action.IsAsynchronous)
	assert.True(t, action.ActionSuccessful)

	// An action response requires a body
	_, err = client.RunAction(ctx, http.MethodDelete, srv.URL+"/empty", nil, "")
	var unexpected *UnexpectedResponseError
	assert.ErrorAs(t, err, &unexpected)
}
