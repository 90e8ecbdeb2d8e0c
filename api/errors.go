package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Triumph-Tech/magnus/internal/util"
)

// Sentinel remote errors. Callers match with errors.Is.
var (
	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrAccessDenied is returned for HTTP 403 responses.
	ErrAccessDenied = errors.New("access denied")

	// ErrUnauthorized is returned when no session could be established for a
	// server, or when a request still fails authorization after the single
	// transparent re-login.
	ErrUnauthorized = errors.New("unable to authorize with the server")
)

// UnexpectedResponseError covers any other non-success status, or a success
// status with an unusable body where one was required. The raw status and
// body are kept for diagnostics but the message stays generic; interactive
// surfaces show only the message.
type UnexpectedResponseError struct {
	StatusCode int
	Body       string
}

func (e *UnexpectedResponseError) Error() string {
	return "unexpected server response"
}

// classifyResponse maps a response's status to the error taxonomy and drains
// the body for diagnostics on failure. Returns nil for 2xx statuses.
func classifyResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return ErrAccessDenied
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		err := &UnexpectedResponseError{StatusCode: resp.StatusCode, Body: string(body)}
		logger := util.GetLogger("api")
		logger.Error().
			Int("status", resp.StatusCode).
			Str("url", resp.Request.URL.String()).
			Str("body", err.Body).
			Msg("Unexpected server response")
		return err
	}
}

// unusableBody is the unexpected-response error for a success status whose
// body was required but empty or undecodable.
func unusableBody(statusCode int, body []byte, cause error) error {
	err := &UnexpectedResponseError{StatusCode: statusCode, Body: string(body)}
	logger := util.GetLogger("api")
	logger.Error().
		Int("status", statusCode).
		AnErr("cause", cause).
		Str("body", err.Body).
		Msg("Unusable response body")
	if cause != nil {
		return fmt.Errorf("%w: %w", err, cause)
	}
	return err
}
