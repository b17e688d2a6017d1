package clients

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrAuthFailed marks a terminal authentication failure: the access token
// was rejected and the refresh path could not recover it. Both tokens have
// already been wiped when this is returned.
var ErrAuthFailed = errors.New("authentication failed")

var (
	errNoRefreshToken   = errors.New("no refresh token")
	errRefreshThrottled = errors.New("refresh attempts throttled")
)

// StatusError is a non-2xx response that is not part of the 401-refresh
// path: the server understood the request and refused it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}
