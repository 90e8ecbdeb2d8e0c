package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/singleflight"

	"github.com/Triumph-Tech/magnus"
	"github.com/Triumph-Tech/magnus/internal/util"
)

// Server login contract
const (
	loginPath = "/api/Auth/Login"

	// sessionCookiePrefix identifies the session cookie among whatever else
	// the server sets on a successful login
	sessionCookiePrefix = ".ROCK"
)

// SessionStore holds one cached session token per server base URL and
// knows how to (re)establish them. The cache is advisory: losing an entry
// only costs a fresh login, never correctness.
//
// Safe for concurrent use. Concurrent misses for the same server are
// collapsed into a single login request.
type SessionStore struct {
	tokens     *xsync.Map[string, string]
	flight     singleflight.Group
	httpClient *http.Client
	creds      magnus.CredentialStore
	ui         magnus.Interactor
	log        util.Logger
}

// NewSessionStore creates a SessionStore backed by the given credential
// store. ui may be nil when no interactive credential fallback is wanted.
func NewSessionStore(timeout time.Duration, creds magnus.CredentialStore, ui magnus.Interactor) *SessionStore {
	return &SessionStore{
		tokens:     xsync.NewMap[string, string](),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		ui:         ui,
		log:        util.GetLogger("session"),
	}
}

// EnsureSession returns a usable session token for the server, logging in
// with stored credentials when no cached token exists. An interactive
// credential prompt is used only when the store has no entry for the
// server. Returns ErrUnauthorized when no token could be obtained.
func (s *SessionStore) EnsureSession(ctx context.Context, serverBaseURL string) (string, error) {
	if token, ok := s.tokens.Load(serverBaseURL); ok {
		return token, nil
	}

	token, err, _ := s.flight.Do(serverBaseURL, func() (any, error) {
		// A concurrent caller may have beaten us to it
		if token, ok := s.tokens.Load(serverBaseURL); ok {
			return token, nil
		}

		username, password := "", ""
		if s.creds != nil {
			if creds, ok, err := s.creds.Get(serverBaseURL); err == nil && ok {
				username, password = creds.Username, creds.Password
			}
		}
		if username == "" && s.ui != nil {
			creds, ok := s.ui.PromptCredentials(ctx, serverBaseURL)
			if !ok {
				return nil, ErrUnauthorized
			}
			username, password = creds.Username, creds.Password
		}

		if !s.Login(ctx, serverBaseURL, username, password) {
			return nil, ErrUnauthorized
		}
		token, _ := s.tokens.Load(serverBaseURL)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// Login issues a login request and caches the resulting session cookie.
// When username is empty the stored credentials for the server are used.
// Login never returns an error: any failure (network, bad status, missing
// session cookie) reports false so callers can present a uniform
// could-not-authenticate outcome.
func (s *SessionStore) Login(ctx context.Context, serverBaseURL, username, password string) bool {
	if username == "" && s.creds != nil {
		creds, ok, err := s.creds.Get(serverBaseURL)
		if err != nil || !ok {
			s.log.Debug().Str("server", serverBaseURL).Msg("No stored credentials")
			return false
		}
		username, password = creds.Username, creds.Password
	}

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverBaseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		s.log.Debug().Err(err).Str("server", serverBaseURL).Msg("Failed to build login request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Error().Err(err).Str("server", serverBaseURL).Msg("Login request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		s.log.Error().Int("status", resp.StatusCode).Str("server", serverBaseURL).Msg("Login rejected")
		return false
	}

	for _, cookie := range resp.Cookies() {
		if strings.HasPrefix(cookie.Name, sessionCookiePrefix) {
			s.tokens.Store(serverBaseURL, cookie.Name+"="+cookie.Value)
			s.log.Debug().Str("server", serverBaseURL).Msg("Session established")
			return true
		}
	}

	s.log.Error().Str("server", serverBaseURL).Msg("Login response carried no session cookie")
	return false
}

// Invalidate drops the cached token for a server. The next EnsureSession
// call logs in again.
func (s *SessionStore) Invalidate(serverBaseURL string) {
	s.tokens.Delete(serverBaseURL)
}
