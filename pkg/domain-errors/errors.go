// Package domainerrors carries the coded error taxonomy surfaced to callers.
//
// Every failure leaving a service boundary is a *Error with a Code, so callers
// (HTTP handlers, the client orchestrator, UI layers) can branch on the kind
// instead of matching strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a domain failure.
type Code string

const (
	CodeAlreadyExists      Code = "already_exists"
	CodeNotFound           Code = "not_found"
	CodeAlreadyVerified    Code = "already_verified"
	CodeHandleMismatch     Code = "handle_mismatch"
	CodeInvalidProof       Code = "invalid_proof"
	CodeMalformedCleartext Code = "malformed_cleartext"
	CodeEncodingError      Code = "encoding_error"
	CodeGatewayUnavailable Code = "gateway_unavailable"
	CodeProofTimeout       Code = "proof_timeout"
	CodeTransportRejected  Code = "transport_rejected"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error. Err is the optional underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error with the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal when
// the chain carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// Is is an alias of HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsTransient reports whether err may be retried with the same inputs.
// Only gateway outages and proof timeouts qualify; every other kind is a
// protocol fact or a completed prior action.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case CodeGatewayUnavailable, CodeProofTimeout:
		return true
	default:
		return false
	}
}

// IsBenignRace reports whether err only says another caller got there first.
func IsBenignRace(err error) bool {
	switch CodeOf(err) {
	case CodeAlreadyExists, CodeAlreadyVerified:
		return true
	default:
		return false
	}
}
