// Package vuri translates between the explorer's virtual resource
// identifiers and the real web URLs of a Magnus server.
//
// A virtual identifier carries one of two schemes so that secure and
// insecure servers can never be confused: "magnus" maps to https and
// "magnus-insecure" maps to http. The authority is the server's
// host[:port] and the path is the item's logical path with the server's
// resource-API prefix stripped, so internal API routing never leaks into
// the virtual tree.
package vuri

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Virtual schemes
const (
	Scheme         = "magnus"
	SchemeInsecure = "magnus-insecure"
)

// APIPrefix is the server's well-known resource-API namespace. Item paths
// inside it are exposed in the virtual tree without it, and [ToWebURL]
// re-inserts it.
const APIPrefix = "/api/TriumphTech/Magnus"

// FromItem composes the virtual identifier for an item's logical path on
// the given server.
//
// An empty itemURI (a bare container with no addressable content yet) gets
// a synthesized unique placeholder path. An itemURI that already carries a
// scheme separator is treated as absolute and passed through unchanged.
func FromItem(serverBaseURL, itemURI string) (string, error) {
	base, err := url.Parse(serverBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverBaseURL, err)
	}

	var scheme string
	switch base.Scheme {
	case "https":
		scheme = Scheme
	case "http":
		scheme = SchemeInsecure
	default:
		return "", fmt.Errorf("unexpected server scheme %q", base.Scheme)
	}

	if itemURI == "" {
		itemURI = "/" + uuid.NewString()
	}
	if strings.Contains(itemURI, "://") {
		return itemURI, nil
	}

	path := strings.TrimPrefix(itemURI, APIPrefix)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return scheme + "://" + base.Host + path, nil
}

// ToWebURL is the inverse of [FromItem]: it reconstructs the real web URL
// for a virtual identifier, re-inserting the resource-API prefix and
// preserving any query and fragment components.
func ToWebURL(virtualURI string) (string, error) {
	u, err := url.Parse(virtualURI)
	if err != nil {
		return "", fmt.Errorf("invalid virtual uri %q: %w", virtualURI, err)
	}

	var scheme string
	switch u.Scheme {
	case Scheme:
		scheme = "https"
	case SchemeInsecure:
		scheme = "http"
	default:
		return "", fmt.Errorf("unexpected scheme %q", u.Scheme)
	}

	web := scheme + "://" + u.Host + APIPrefix + u.EscapedPath()
	if u.RawQuery != "" {
		web += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		web += "#" + u.EscapedFragment()
	}
	return web, nil
}

// ServerBase returns the scheme+authority base URL of a web URL, used to
// key sessions and credentials.
func ServerBase(webURL string) (string, error) {
	u, err := url.Parse(webURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", webURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unexpected scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", webURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Resolve resolves a possibly-relative server-supplied URL reference
// against a server base URL.
func Resolve(serverBaseURL, ref string) (string, error) {
	base, err := url.Parse(serverBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverBaseURL, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url reference %q: %w", ref, err)
	}
	return base.ResolveReference(r).String(), nil
}
