// FILE: internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// NotFoundError signals an unknown subscription/plan/plugin id.
type NotFoundError struct {
	Resource string
	Id       string
}

func (e *NotFoundError) Error() string {
	if e.Id == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Id)
}

func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, Id: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError signals an illegal lifecycle transition or a conflicting
// request (duplicate active subscription, not in trial, same-plan upgrade).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PaymentError surfaces gateway/billing failures. Non-fatal to the process.
type PaymentError struct {
	Message string
	Cause   error
}

func (e *PaymentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("payment error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("payment error: %s", e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Cause
}

func NewPayment(message string, cause error) error {
	return &PaymentError{Message: message, Cause: cause}
}

func IsPayment(err error) bool {
	var pe *PaymentError
	return errors.As(err, &pe)
}

// ErrStaleUpdate is returned by repositories when an optimistic-concurrency
// check fails (the row changed between read and write).
var ErrStaleUpdate = errors.New("stale update: row version changed")
