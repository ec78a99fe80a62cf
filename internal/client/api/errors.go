package api

import (
	"errors"
	"net/http"
)

var (
	// ErrUnavailable marks transport-level failures: the server could not be
	// reached at all, as opposed to answering with an error.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized is wrapped by every 401 response.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a non-2xx response. Message is the server's own wording when
// the body provided one, so the CLI can surface it verbatim.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}
