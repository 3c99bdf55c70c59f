package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExtraction   = errors.New("extraction error")
	ErrGeneration   = errors.New("generation error")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage failure")
)

// Error is a domain failure with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Fail builds a domain error of the given kind.
func Fail(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Failf builds a domain error of the given kind that keeps cause in the chain.
func Failf(kind error, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// PublicMessage returns the client-facing message of err, or fallback when err
// carries no domain message.
func PublicMessage(err error, fallback string) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return fallback
}
