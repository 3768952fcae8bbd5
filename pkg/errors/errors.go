package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
	status  int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code the gateway answers with.
func (e *AppError) HTTPStatus() int {
	if e.status != 0 {
		return e.status
	}
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	case ErrUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusCode lets the error middleware pick up the status.
func (e *AppError) StatusCode() int {
	return e.HTTPStatus()
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrValidation
	ErrTooManyRequests
	ErrUpstreamUnavailable
	ErrUpstream
)

// User-facing messages for failures that carry no better text.
const (
	MsgUnauthorized = "Invalid credentials or session expired. Please log in again."
	MsgRateLimited  = "Too many requests. Please wait a moment and try again."
	MsgNetwork      = "Unable to reach the server. Please check your connection."
	MsgGeneric      = "Something went wrong. Please try again."
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: MsgGeneric,
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: MsgUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// Validation is a client-side form check failure; nothing was sent upstream.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func TooManyRequests(message string, err error) *AppError {
	if message == "" {
		message = MsgRateLimited
	}
	return &AppError{
		Code:    ErrTooManyRequests,
		Message: message,
		Err:     err,
	}
}

func UpstreamUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrUpstreamUnavailable,
		Message: MsgNetwork,
		Err:     err,
	}
}

// Upstream is a business error reported by the backend. The status is passed through.
func Upstream(status int, message string, err error) *AppError {
	if message == "" {
		message = MsgGeneric
	}
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &AppError{
		Code:    ErrUpstream,
		Message: message,
		Err:     err,
		status:  status,
	}
}

// As extracts an *AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrValidation
}

// FromAPI converts a backend client failure into the user-facing taxonomy.
// Errors that are already *AppError pass through unchanged.
func FromAPI(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		return Internal(err)
	}

	switch apiErr.Kind {
	case apiclient.KindUnauthorized:
		if apiErr.StatusCode == http.StatusForbidden {
			return &AppError{Code: ErrForbidden, Message: MsgUnauthorized, Err: err}
		}
		return Unauthorized(err)
	case apiclient.KindRateLimited:
		return TooManyRequests("", err)
	case apiclient.KindNetwork:
		appErr := UpstreamUnavailable(err)
		if stderrors.Is(err, context.DeadlineExceeded) {
			appErr.status = http.StatusGatewayTimeout
		}
		return appErr
	default:
		return Upstream(apiErr.StatusCode, apiErr.Message, err)
	}
}
