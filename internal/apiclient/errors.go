package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any Error with status 404 and empty detail payloads.
var ErrNotFound = errors.New("not found")

// ErrNoUploadURL is returned when an upload response carries no usable URL.
var ErrNoUploadURL = errors.New("upload response has no file url")

// Error is a failed backend call. Message is the server-provided text, if any.
type Error struct {
	Status   int
	Message  string
	Method   string
	Resource string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Resource, e.Status, msg)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// StatusCode returns the HTTP status of the failed call.
func (e *Error) StatusCode() int { return e.Status }

// UserMessage returns the server message shown to users, or "".
func (e *Error) UserMessage() string { return e.Message }

// MessageOr returns the server message of err when it is an *Error with one,
// and fallback otherwise.
func MessageOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func notFound(method, path string) error {
	return &Error{Status: http.StatusNotFound, Message: "Not found", Method: method, Resource: path}
}
