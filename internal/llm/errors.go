package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("empty response")

// Error is a provider failure with enough context to log it.
type Error struct {
	Provider Provider
	Model    string
	Message  string
	Timeout  bool
	Cause    error
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Provider))
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(provider Provider, model, message string, cause error) *Error {
	return &Error{
		Provider: provider,
		Model:    model,
		Message:  message,
		Timeout:  errors.Is(cause, context.DeadlineExceeded),
		Cause:    cause,
	}
}

// IsTimeout reports whether err is a generation call that ran out of time.
func IsTimeout(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Timeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}
