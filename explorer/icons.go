package explorer

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Triumph-Tech/magnus/internal/util"
)

// iconCache fetches and memoizes remote icon images by URL, converted to
// inline data URIs. Failures are memoized too (as tombstones) so a
// permanently broken icon URL is fetched at most once per process.
type iconCache struct {
	entries    *xsync.Map[string, iconEntry]
	httpClient *http.Client
	log        util.Logger
}

type iconEntry struct {
	dataURI string
	ok      bool
}

func newIconCache(timeout time.Duration) *iconCache {
	return &iconCache{
		entries:    xsync.NewMap[string, iconEntry](),
		httpClient: &http.Client{Timeout: timeout},
		log:        util.GetLogger("icons"),
	}
}

// resolve fetches the icon at url and returns it as a data URI. Both
// successes and failures are cached for the process lifetime.
func (c *iconCache) resolve(ctx context.Context, url string) (string, bool) {
	if url == "" {
		return "", false
	}
	if entry, ok := c.entries.Load(url); ok {
		return entry.dataURI, entry.ok
	}

	entry := c.fetch(ctx, url)
	c.entries.Store(url, entry)
	return entry.dataURI, entry.ok
}

func (c *iconCache) fetch(ctx context.Context, url string) iconEntry {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Debug().Err(err).Str("url", url).Msg("Bad icon url")
		return iconEntry{}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("url", url).Msg("Icon fetch failed")
		return iconEntry{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("Icon fetch rejected")
		return iconEntry{}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(data) == 0 {
		return iconEntry{}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	uri := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return iconEntry{dataURI: uri, ok: true}
}

// IsThemeIcon reports whether an icon reference is a symbolic theme-icon
// token of the form "$(name)" rather than a fetchable URL.
func IsThemeIcon(ref string) bool {
	return strings.HasPrefix(ref, "$(") && strings.HasSuffix(ref, ")")
}

// ResolveIcons resolves the light and dark icon presentation for a node.
// A symbolic theme-icon token is returned as-is for the host to map; image
// URLs go through the icon cache, and the light icon substitutes for the
// dark one when no distinct dark variant is supplied or resolvable.
func (e *Explorer) ResolveIcons(ctx context.Context, node *Node) (light, dark string) {
	ref := node.Item.IconURL
	if IsThemeIcon(ref) {
		return ref, ref
	}

	if uri, ok := e.icons.resolve(ctx, ref); ok {
		light = uri
	}
	dark = light
	if darkRef := node.Item.IconURLDark; darkRef != "" && darkRef != ref {
		if uri, ok := e.icons.resolve(ctx, darkRef); ok {
			dark = uri
		}
	}
	return light, dark
}
