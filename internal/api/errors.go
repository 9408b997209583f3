package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransportError means the service could not be reached or the exchange broke off.
type TransportError struct {
	Op  string
	Err error
}

// Error formats transport failures for logs and UI.
func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Timeout reports whether the underlying failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	if e == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// HTTPError is a non-2xx response. Message is the server's message field when present.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error formats the status and optional server message.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return fmt.Sprintf("http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// ApplicationError is a 2xx response whose status field is not "ok".
type ApplicationError struct {
	Status  string
	Message string
}

// Error returns the server message, falling back to the status.
func (e *ApplicationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %q", e.Status)
}
