package explorer

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSurface_StatReadWrite(t *testing.T) {
	t.Parallel()

	srv := newMagnusServer(t)
	var mu sync.Mutex
	content := []byte("{% include '~/header.lava' %}")
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	srv.mux.HandleFunc("GET /api/TriumphTech/Magnus/GetFileContent/12", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		body := content
		mu.Unlock()
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
		w.Header().Set("X-Magnus-Created", modified.AddDate(-1, 0, 0).Format(http.TimeFormat))
		w.Header().Set("X-Magnus-Readonly", "true")
		_, _ = w.Write(body)
	})
	srv.mux.HandleFunc("PUT /api/TriumphTech/Magnus/GetFileContent/12", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		content = body
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	f := newFixture(t)
	f.register(t, srv)
	virtualURI := "magnus-insecure://" + srv.host() + "/GetFileContent/12"

	stat, err := f.ex.Stat(context.Background(), virtualURI)
	require.NoError(t, err)
	assert.Equal(t, int64(len("{% include '~/header.lava' %}")), stat.Size)
	assert.True(t, stat.ModifiedTime.Equal(modified))
	assert.True(t, stat.CreatedTime.Equal(modified.AddDate(-1, 0, 0)))
	assert.True(t, stat.ReadOnly)

	data, err := f.ex.ReadFile(context.Background(), virtualURI)
	require.NoError(t, err)
	assert.Equal(t, "{% include '~/header.lava' %}", string(data))

	require.NoError(t, f.ex.WriteFile(context.Background(), virtualURI, []byte("updated")))
	data, err = f.ex.ReadFile(context.Background(), virtualURI)
	require.NoError(t, err)
	assert.Equal(t, "updated", string(data))
}

func TestFileSurface_RejectsForeignScheme(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.ex.Stat(context.Background(), "https://rock.example.org/home.lava")
	require.Error(t, err)
	_, err = f.ex.ReadFile(context.Background(), "file:///etc/passwd")
	require.Error(t, err)
	err = f.ex.WriteFile(context.Background(), "https://rock.example.org/home.lava", nil)
	require.Error(t, err)
}

func TestFileSurface_UnsupportedOperations(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	uri := "magnus://rock.example.org/home.lava"

	assert.ErrorIs(t, f.ex.ReadDirectory(ctx, uri), ErrNotImplemented)
	assert.ErrorIs(t, f.ex.CreateDirectory(ctx, uri), ErrNotImplemented)
	assert.ErrorIs(t, f.ex.DeleteFile(ctx, uri), ErrNotImplemented)
	assert.ErrorIs(t, f.ex.Rename(ctx, uri, uri+".bak"), ErrNotImplemented)
}

func TestFileSurface_WatchHandle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	handle := f.ex.Watch("magnus://rock.example.org/home.lava")
	require.NotNil(t, handle)
	handle.Dispose()
	handle.Dispose()
}
