// Package api is the HTTP contract layer for Magnus servers: login and
// session caching, item descriptor listings, file content and metadata,
// and generic capability-URL actions including multipart uploads.
//
// Every operation resolves a session token through the [SessionStore]
// first, keyed by the scheme+authority of the target URL. Tokens are used
// optimistically; an authorization failure drops the cached token and the
// request is retried once after a fresh login.
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Triumph-Tech/magnus"
	"github.com/Triumph-Tech/magnus/config"
	"github.com/Triumph-Tech/magnus/internal/util"
	"github.com/Triumph-Tech/magnus/vuri"
)

// Default root-listing endpoint used when a listing request carries no
// item path.
const treeItemsPath = vuri.APIPrefix + "/GetTreeItems"

// serverInfoPath returns root-level metadata about a server for the tree root.
const serverInfoPath = vuri.APIPrefix + "/GetServerInfo"

// readOnlyHeader flags read-only files on stat responses.
const readOnlyHeader = "X-Magnus-Readonly"

// Client performs authenticated requests against Magnus servers.
//
// Read-style calls (listings, stat, content) and action-style calls
// (build, delete, create, upload) use separately bounded timeouts; an
// expired timeout surfaces as an ordinary network error.
type Client struct {
	sessions     *SessionStore
	readClient   *http.Client
	actionClient *http.Client
	cfg          *config.Config
	log          util.Logger
}

// NewClient creates a Client using cfg's timeouts and the given session store.
func NewClient(cfg *config.Config, sessions *SessionStore) *Client {
	return &Client{
		sessions:     sessions,
		readClient:   &http.Client{Timeout: cfg.ReadTimeout},
		actionClient: &http.Client{Timeout: cfg.ActionTimeout},
		cfg:          cfg,
		log:          util.GetLogger("api"),
	}
}

// Sessions exposes the session store so collaborators can invalidate
// sessions on server removal.
func (c *Client) Sessions() *SessionStore {
	return c.sessions
}

// do issues one authenticated request. On a 401 it drops the cached
// session, re-logs in once, and retries; a second failure surfaces
// ErrUnauthorized. The request body is kept as bytes so the retry can
// replay it.
func (c *Client) do(ctx context.Context, hc *http.Client, method, rawURL string, body []byte, contentType string) (*http.Response, error) {
	base, err := vuri.ServerBase(rawURL)
	if err != nil {
		return nil, err
	}

	send := func(token string) (*http.Response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Cookie", token)
		return hc.Do(req)
	}

	token, err := c.sessions.EnsureSession(ctx, base)
	if err != nil {
		return nil, err
	}

	resp, err := send(token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Token expired server-side; drop it and retry once with a fresh login.
	resp.Body.Close()
	c.log.Debug().Str("url", rawURL).Msg("Session rejected, re-authenticating")
	c.sessions.Invalidate(base)

	token, err = c.sessions.EnsureSession(ctx, base)
	if err != nil {
		return nil, err
	}
	resp, err = send(token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrUnauthorized
	}
	return resp, nil
}

// getJSON fetches url and decodes the (key-normalized) JSON body into v.
// An empty body is an unexpected-response error: these endpoints always
// return one.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.do(ctx, c.readClient, http.MethodGet, url, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return unusableBody(resp.StatusCode, body, nil)
	}
	if err := decodeJSON(body, v); err != nil {
		return unusableBody(resp.StatusCode, body, err)
	}
	return nil
}

// GetServerDescriptor fetches root-level metadata about a server for
// display as the tree root.
func (c *Client) GetServerDescriptor(ctx context.Context, serverBaseURL string) (*magnus.ItemDescriptor, error) {
	var item magnus.ItemDescriptor
	if err := c.getJSON(ctx, serverBaseURL+serverInfoPath, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetChildItems lists the children of the item at itemPath. An empty
// itemPath lists the server root.
func (c *Client) GetChildItems(ctx context.Context, serverBaseURL, itemPath string) ([]magnus.ItemDescriptor, error) {
	url := serverBaseURL + treeItemsPath
	if itemPath != "" {
		resolved, err := vuri.Resolve(serverBaseURL, itemPath)
		if err != nil {
			return nil, err
		}
		url = resolved
	}

	var items []magnus.ItemDescriptor
	if err := c.getJSON(ctx, url, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetFileStat fetches metadata for the file at url. It tries a
// metadata-only request first and falls back to a full content request
// for servers that don't support one, reading size and dates from the
// response headers either way. A missing content-length resolves to size
// 0, not an error.
func (c *Client) GetFileStat(ctx context.Context, url string) (*magnus.FileStat, error) {
	resp, err := c.do(ctx, c.readClient, http.MethodHead, url, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp.Body.Close()
		c.log.Debug().Str("url", url).Msg("HEAD unsupported, falling back to GET")
		resp, err = c.do(ctx, c.readClient, http.MethodGet, url, nil, "")
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return nil, err
	}
	return statFromHeaders(resp), nil
}

func statFromHeaders(resp *http.Response) *magnus.FileStat {
	stat := &magnus.FileStat{
		ReadOnly: resp.Header.Get(readOnlyHeader) == "true",
	}
	if resp.ContentLength > 0 {
		stat.Size = resp.ContentLength
	}

	modified := time.Now()
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		modified = t
	} else if t, err := http.ParseTime(resp.Header.Get("Date")); err == nil {
		modified = t
	}
	stat.ModifiedTime = modified

	created := modified
	if t, err := http.ParseTime(resp.Header.Get("X-Magnus-Created")); err == nil {
		created = t
	}
	stat.CreatedTime = created
	return stat
}

// GetFileContent fetches the full content of the file at url.
func (c *Client) GetFileContent(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, c.readClient, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// UpdateFileContent replaces the content of the file at url. The payload
// is sent as one opaque binary body; the call is all-or-nothing.
func (c *Client) UpdateFileContent(ctx context.Context, url string, content []byte) error {
	resp, err := c.do(ctx, c.actionClient, http.MethodPut, url, content, "application/octet-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return classifyResponse(resp)
}

// RunAction performs a generic action request (build, delete, create file,
// create folder) against a server-supplied capability URL and decodes the
// uniform action response.
func (c *Client) RunAction(ctx context.Context, method, url string, payload []byte, contentType string) (*magnus.ActionResponse, error) {
	resp, err := c.do(ctx, c.actionClient, method, url, payload, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, unusableBody(resp.StatusCode, body, nil)
	}
	var action magnus.ActionResponse
	if err := decodeJSON(body, &action); err != nil {
		return nil, unusableBody(resp.StatusCode, body, err)
	}
	return &action, nil
}
