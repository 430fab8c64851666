package usecase

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: a webhook envelope, listing
// parameters or an update body.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// VerificationError is returned when a webhook handshake token does not match.
type VerificationError struct {
	Message string
}

func (e *VerificationError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// StoreError wraps any persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsVerificationError(err error) bool {
	var target *VerificationError
	return errors.As(err, &target)
}

func IsStoreError(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
