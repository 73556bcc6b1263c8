package client

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrBodySize caps how much of an unexpected response is kept
// on the returned error.
const maxErrBodySize = 4 << 10 // 4KB

// execFn represents a func to operate on a response.
type execFn func(response *http.Response) error

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is wrapped alongside [ErrUnexpectedStatusCode] when the
	// server responds with 401 Unauthorized or 403 Forbidden, which for the
	// document registry usually means a rejected signature.
	ErrAuthFailure = errors.New("auth failure")
)

// UnexpectedStatusError is returned when the HTTP response status code
// does not match the expected value.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
