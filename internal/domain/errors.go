package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a payment error by the operation phase that produced it
type ErrorKind string

const (
	KindCreationError ErrorKind = "CreationError"
	KindReadError     ErrorKind = "ReadError"
	KindUpdateError   ErrorKind = "UpdateError"
)

// ErrorCode is a machine-readable sub-code carried by every PaymentError
type ErrorCode string

const (
	ErrorCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrorCodeInvalidData   ErrorCode = "INVALID_DATA"
	ErrorCodeDBError       ErrorCode = "DB_ERROR"
	ErrorCodeGatewayError  ErrorCode = "GATEWAY_ERROR"
	ErrorCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// PaymentError is the structured domain error returned by every operation on
// the caller-facing surface. Retryable tells the caller whether resubmitting
// with the same idempotency key can succeed; callers branch on Kind, Code and
// Retryable, never on message text.
type PaymentError struct {
	Err       error
	Kind      ErrorKind
	Code      ErrorCode
	Message   string
	Retryable bool
}

// Error implements the error interface
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s(%s): %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s(%s): %s", e.Kind, e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewCreationError creates a CreationError with the given sub-code
func NewCreationError(code ErrorCode, message string, retryable bool) *PaymentError {
	return &PaymentError{Kind: KindCreationError, Code: code, Message: message, Retryable: retryable}
}

// NewReadError creates a ReadError with the given sub-code
func NewReadError(code ErrorCode, message string, retryable bool) *PaymentError {
	return &PaymentError{Kind: KindReadError, Code: code, Message: message, Retryable: retryable}
}

// NewUpdateError creates an UpdateError with the given sub-code
func NewUpdateError(code ErrorCode, message string, retryable bool) *PaymentError {
	return &PaymentError{Kind: KindUpdateError, Code: code, Message: message, Retryable: retryable}
}

// WrapCreationError wraps an underlying cause as a CreationError
func WrapCreationError(code ErrorCode, message string, retryable bool, err error) *PaymentError {
	return &PaymentError{Kind: KindCreationError, Code: code, Message: message, Retryable: retryable, Err: err}
}

// WrapReadError wraps an underlying cause as a ReadError
func WrapReadError(code ErrorCode, message string, retryable bool, err error) *PaymentError {
	return &PaymentError{Kind: KindReadError, Code: code, Message: message, Retryable: retryable, Err: err}
}

// WrapUpdateError wraps an underlying cause as an UpdateError
func WrapUpdateError(code ErrorCode, message string, retryable bool, err error) *PaymentError {
	return &PaymentError{Kind: KindUpdateError, Code: code, Message: message, Retryable: retryable, Err: err}
}

// AsPaymentError extracts a PaymentError from an error chain, or nil
func AsPaymentError(err error) *PaymentError {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// GetErrorCode extracts the sub-code from an error, empty if not a PaymentError
func GetErrorCode(err error) ErrorCode {
	if pe := AsPaymentError(err); pe != nil {
		return pe.Code
	}
	return ""
}

// IsNotFound reports whether an error carries the NOT_FOUND sub-code
func IsNotFound(err error) bool {
	return GetErrorCode(err) == ErrorCodeNotFound
}

// IsRetryable reports whether the caller may resubmit the same logical
// operation with the same idempotency key. Unknown errors are not retryable.
func IsRetryable(err error) bool {
	if pe := AsPaymentError(err); pe != nil {
		return pe.Retryable
	}
	return false
}
