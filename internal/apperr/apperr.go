// Package apperr defines the error type that carries an HTTP status and a
// user-visible message to the router's error page.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// DefaultStatus is used for errors that carry no status of their own.
	DefaultStatus = http.StatusInternalServerError

	// DefaultMessage is shown for errors that carry no message of their own.
	DefaultMessage = "Something went wrong"
)

// HTTPError is an error that knows how it should be presented to the client.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// New builds an HTTPError. Zero status and empty message fall back to the defaults.
func New(status int, message string) *HTTPError {
	if status == 0 {
		status = DefaultStatus
	}
	if message == "" {
		message = DefaultMessage
	}
	return &HTTPError{Status: status, Message: message}
}

func BadRequest(message string) *HTTPError {
	return New(http.StatusBadRequest, message)
}

func NotFound(message string) *HTTPError {
	return New(http.StatusNotFound, message)
}

// Internal wraps an unexpected error. The cause is kept for logging only.
func Internal(err error) *HTTPError {
	e := New(DefaultStatus, DefaultMessage)
	e.Err = err
	return e
}

// From extracts the HTTPError from err's chain, or wraps err as an internal error.
func From(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return New(httpErr.Status, httpErr.Message)
	}
	return Internal(err)
}
