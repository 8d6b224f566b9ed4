package client

import (
	"errors"
	"fmt"
)

// ErrAuthUnavailable matches any *AuthUnavailableError with errors.Is.
var ErrAuthUnavailable = errors.New("authentication unavailable")

const maxBodyInMessage = 300

// TransportError means the request did not produce a usable response: the connection
// failed or timed out, the body could not be read, or it did not match the expected schema.
type TransportError struct {
	Op     string // "encode", "request", "read", "decode" or "validate"
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s failed: %s", e.Method, e.URL, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Kind() string { return "TransportError" }

// UnexpectedStatusError means the service answered with a status outside the expected set.
type UnexpectedStatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *UnexpectedStatusError) Error() string {
	body := redactSecrets(e.Body)
	if len(body) > maxBodyInMessage {
		body = body[:maxBodyInMessage] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, body)
}

func (e *UnexpectedStatusError) Kind() string { return "UnexpectedStatus" }

// AuthUnavailableError means that neither registration nor login produced a token.
type AuthUnavailableError struct {
	Username    string
	RegisterErr error
	LoginErr    error
}

func (e *AuthUnavailableError) Error() string {
	return fmt.Sprintf("could not authenticate as %q: register: %s; login: %s",
		e.Username, e.RegisterErr, e.LoginErr)
}

func (e *AuthUnavailableError) Is(target error) bool { return target == ErrAuthUnavailable }

func (e *AuthUnavailableError) Kind() string { return "AuthUnavailable" }

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status of an *UnexpectedStatusError in err's chain, or 0.
func StatusCode(err error) int {
	var se *UnexpectedStatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
