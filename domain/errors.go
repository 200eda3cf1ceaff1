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
	ErrCodeState        ErrorCode = "INVALID_STATE"
	ErrCodeFunds        ErrorCode = "FUNDS"
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
	ErrIdentityNotFound = NewError(ErrCodeNotFound, "identity not found")
	ErrTaskNotFound     = NewError(ErrCodeNotFound, "task not found")
	ErrPoolNotFound     = NewError(ErrCodeNotFound, "donation pool not found")
	ErrNodeNotFound     = NewError(ErrCodeNotFound, "node account not found")
	ErrSessionNotFound  = NewError(ErrCodeNotFound, "session not found")

	ErrAlreadyRegistered = NewError(ErrCodeConflict, "participant already registered")
	ErrTaskExists        = NewError(ErrCodeConflict, "task id already exists")
	ErrAlreadyVerified   = NewError(ErrCodeConflict, "already verified")
	ErrAlreadyDisputed   = NewError(ErrCodeConflict, "already disputed")
	ErrAlreadyAssigned   = NewError(ErrCodeConflict, "task already has a volunteer")
	ErrAlreadySigned     = NewError(ErrCodeConflict, "release already signed by caller")
	ErrDuplicateDelivery = NewError(ErrCodeConflict, "message delivery already rewarded")

	ErrNotAuthorized  = NewError(ErrCodeForbidden, "caller is not authorized")
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidState   = NewError(ErrCodeState, "operation not permitted in current status")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidTTL     = NewError(ErrCodeInvalid, "ttl outside permitted bounds")
	ErrOutOfRange     = NewError(ErrCodeInvalid, "location proof outside tolerance")
	ErrTaskExpired    = NewError(ErrCodeState, "task ttl has elapsed")

	ErrInsufficientFunds = NewError(ErrCodeFunds, "insufficient balance")
	ErrNothingToRelease  = NewError(ErrCodeFunds, "nothing to release")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
