package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned before any request is made when a bearer
// route is called without a session token.
var ErrUnauthenticated = errors.New("not logged in")

// NetworkError means no usable response arrived (transport failure, timeout,
// or an undecodable body).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Message is the server's message, possibly empty.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, msg)
}

const networkMessage = "Network error"

// Message renders err for an inline error slot: the server's message verbatim
// when there is one, a generic network message when no response arrived, and
// fallback otherwise.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if strings.TrimSpace(apiErr.Message) != "" {
			return apiErr.Message
		}
		return fallback
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return networkMessage
	}
	if errors.Is(err, ErrUnauthenticated) {
		return "Not logged in"
	}
	return fallback
}

// StatusCode returns the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
