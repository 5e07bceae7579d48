// Package apperr defines the failure kinds surfaced by the API and their
// HTTP status mapping.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	Unauthenticated     Kind = "unauthenticated"
	InvalidCredential   Kind = "invalid_credential"
	Forbidden           Kind = "forbidden"
	InvalidInput        Kind = "invalid_input"
	InvalidKey          Kind = "invalid_key"
	InvalidEnum         Kind = "invalid_enum"
	Conflict            Kind = "conflict"
	NotFound            Kind = "not_found"
	RateLimited         Kind = "rate_limited"
	StoreUnavailable    Kind = "store_unavailable"
	ProviderUnavailable Kind = "provider_unavailable"
	ProviderTimeout     Kind = "provider_timeout"
	InternalError       Kind = "internal_error"
)

var statusByKind = map[Kind]int{
	Unauthenticated:     fiber.StatusUnauthorized,
	InvalidCredential:   fiber.StatusUnauthorized,
	Forbidden:           fiber.StatusForbidden,
	InvalidInput:        fiber.StatusBadRequest,
	InvalidKey:          fiber.StatusBadRequest,
	InvalidEnum:         fiber.StatusBadRequest,
	Conflict:            fiber.StatusConflict,
	NotFound:            fiber.StatusNotFound,
	RateLimited:         fiber.StatusTooManyRequests,
	StoreUnavailable:    fiber.StatusServiceUnavailable,
	ProviderUnavailable: fiber.StatusServiceUnavailable,
	ProviderTimeout:     fiber.StatusGatewayTimeout,
	InternalError:       fiber.StatusInternalServerError,
}

// Error is a classified failure. Message is safe to show to the caller;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Data    any
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithData attaches a payload rendered alongside the failure.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, InternalError for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}

func Status(kind Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

// KindForStatus maps a bare HTTP status (e.g. fiber's own 404/405) back to a kind.
func KindForStatus(code int) Kind {
	switch code {
	case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
		return InvalidInput
	case fiber.StatusUnauthorized:
		return Unauthenticated
	case fiber.StatusForbidden:
		return Forbidden
	case fiber.StatusNotFound:
		return NotFound
	case fiber.StatusConflict:
		return Conflict
	case fiber.StatusTooManyRequests:
		return RateLimited
	case fiber.StatusServiceUnavailable:
		return StoreUnavailable
	case fiber.StatusGatewayTimeout:
		return ProviderTimeout
	}
	return InternalError
}
