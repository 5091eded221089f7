package booking

import (
	"errors"
	"fmt"
)

// ValidationError signals malformed or semantically illegal input.
// It is surfaced to the caller and never retried.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFoundError signals an absent client, service, booking, slot or
// waitlist entry. Fatal to the requested operation.
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ConflictError signals a lost slot race, a duplicate waitlist entry or a
// duplicate reference. Callers may retry with a different slot or entry.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InternalError wraps a persistence or collaborator failure.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error { return e.Err }

func newValidationError(code, msg string) error {
	return &ValidationError{Code: code, Message: msg}
}

func newNotFoundError(code, msg string) error {
	return &NotFoundError{Code: code, Message: msg}
}

func newConflictError(code, msg string) error {
	return &ConflictError{Code: code, Message: msg}
}

func newInternalError(code, msg string, err error) error {
	return &InternalError{Code: code, Message: msg, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
