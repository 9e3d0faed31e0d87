package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrMissingInitArguments is returned by New when the configuration
	// lacks a base URL, or supplies neither a token nor a full
	// user/password pair.
	ErrMissingInitArguments = errors.New("missing init arguments")

	// ErrUninitiatedClient is returned when an authenticated operation is
	// attempted before the client holds a token.
	ErrUninitiatedClient = errors.New("uninitiated client: no token, call Login first")

	// ErrLoginLacksCredentials is returned by Login on a token-born client
	// that has no credentials to exchange.
	ErrLoginLacksCredentials = errors.New("login lacks credentials")

	// ErrFieldMissing is returned by stat projections when the server
	// response lacks one of the allow-listed fields.
	ErrFieldMissing = errors.New("field missing in response")
)

// APIError represents a non-2xx Taiga response encountered where a
// successful one was required (paginated fetches, projections, Login).
// It carries the raw body so callers can inspect Taiga's _error_message
// and _error_type fields.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Resource   string
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("taiga %s error (status %d) on %q: %v",
			e.Class, e.StatusCode, e.Resource, e.Err)
	}
	return fmt.Sprintf("taiga %s error (status %d) on %q",
		e.Class, e.StatusCode, e.Resource)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}
