package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrSessionNotFound      = NewError(ErrCodeNotFound, "session not found")
	ErrOrderNotFound        = NewError(ErrCodeNotFound, "order not found")
	ErrPaymentNotFound      = NewError(ErrCodeNotFound, "payment not found")
	ErrDisbursementNotFound = NewError(ErrCodeNotFound, "disbursement not found")
	ErrUnauthorized         = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidOrder         = NewError(ErrCodeInvalid, "invalid order line")
	ErrNotCreator           = NewError(ErrCodeForbidden, "only the session creator may do this")
	ErrCreatorCannotOrder   = NewError(ErrCodeForbidden, "the session creator cannot place orders")
	ErrSessionEnded         = NewError(ErrCodeInvalid, "session ended")
	ErrQuotaFull            = NewError(ErrCodeInvalid, "quota penuh")
	ErrNothingToDisburse    = NewError(ErrCodeInvalid, "no collected funds to disburse")
	ErrSessionStillOpen     = NewError(ErrCodeInvalid, "session is still open")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
