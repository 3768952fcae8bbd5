package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindNetwork      Kind = "network"
	KindServer       Kind = "server"
)

// Error is returned for every failed call. StatusCode is 0 when no response arrived.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Kind       Kind
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps an HTTP status to an error kind.
func Classify(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	case 0:
		return KindNetwork
	default:
		return KindServer
	}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }
func IsRateLimited(err error) bool  { return isKind(err, KindRateLimited) }
func IsNetwork(err error) bool      { return isKind(err, KindNetwork) }

// IsStatus reports whether err is a backend response with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == status
}

func isKind(err error, kind Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

// countsAgainstBreaker: only transport failures and 5xx answers trip the
// breaker. Calls cancelled by the caller never do.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	apiErr, ok := AsError(err)
	if !ok {
		return true
	}
	return apiErr.Kind == KindNetwork || apiErr.StatusCode >= http.StatusInternalServerError
}
