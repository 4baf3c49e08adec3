// Package apperrors classifies failures so that every entry point (HTTP, CLI) reports them
// with the same kind, human-readable message and internal cause.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure.
type Kind string

// Kind values
const (
	KindInvalidInput Kind = "invalid_input" // rejected before any I/O
	KindNotFound     Kind = "not_found"     // no matching local row
	KindNoData       Kind = "no_data"       // external snapshot unusable, not retriable
	KindUpstream     Kind = "upstream"      // recruiting platform failure
	KindGenerator    Kind = "generator"     // AI service failed or returned nothing usable
	KindConflict     Kind = "conflict"      // another sync holds the record
	KindInternal     Kind = "internal"
)

// Sentinel errors for errors.Is checks.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Invalid creates a KindInvalidInput error.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	if errors.Is(err, ErrConflict) {
		return KindConflict
	}
	return KindInternal
}

// Message returns the human-readable message of err without its internal cause.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindNoData:
		return http.StatusUnprocessableEntity
	case KindUpstream, KindGenerator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
