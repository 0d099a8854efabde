// Package gwerrors defines the gateway's error taxonomy as wrapped sentinel
// errors, plus the HTTP status each maps to.
package gwerrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest covers a bad model id or empty embedding input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAuthRequired means no bearer token was presented but one is required.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthRejected means a bearer token was presented but is not recognized.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrClassifierUnavailable is absorbed internally; it never reaches a client.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrProviderExhausted means every candidate in the fallback chain failed.
	ErrProviderExhausted = errors.New("provider exhausted")

	// ErrNoCandidates means the deduplicated fallback chain was empty.
	ErrNoCandidates = errors.New("no candidates")

	// ErrMalformedUpstreamResponse means an upstream response could not be
	// normalized (missing choices, missing embedding vector, etc).
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")

	// ErrStateModelUnavailable is absorbed into a footer warning; it never
	// surfaces as an HTTP error.
	ErrStateModelUnavailable = errors.New("state model unavailable")

	// ErrPendingMigrations is fatal at startup only.
	ErrPendingMigrations = errors.New("pending migrations")

	// ErrSchemaOutOfRange is fatal at startup only.
	ErrSchemaOutOfRange = errors.New("schema version out of supported range")

	// ErrPersistence covers any other database failure.
	ErrPersistence = errors.New("persistence error")
)

// HTTPStatus maps a taxonomy error to the status code the HTTP surface
// should respond with. Errors that are absorbed internally (classifier,
// state model) never reach this function from a request path.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthRejected):
		return http.StatusForbidden
	case errors.Is(err, ErrProviderExhausted), errors.Is(err, ErrNoCandidates):
		return http.StatusBadGateway
	case errors.Is(err, ErrMalformedUpstreamResponse):
		return http.StatusBadGateway
	case errors.Is(err, ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorType returns the OpenAI-style error.type string a client sees.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request_error"
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrAuthRejected):
		return "authentication_error"
	case errors.Is(err, ErrProviderExhausted), errors.Is(err, ErrNoCandidates), errors.Is(err, ErrMalformedUpstreamResponse):
		return "upstream_error"
	default:
		return "internal_error"
	}
}

// Wrap attaches context to a taxonomy sentinel while preserving errors.Is.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
