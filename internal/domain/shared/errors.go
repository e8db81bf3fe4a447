package shared

import "errors"

// ErrorCategory classifies domain errors by how a caller should react to them
type ErrorCategory string

const (
	// CategoryState errors mean the caller acted on an entity in the wrong lifecycle state
	CategoryState ErrorCategory = "STATE"
	// CategoryValidation errors mean the input must be fixed and resubmitted
	CategoryValidation ErrorCategory = "VALIDATION"
	// CategoryPolicy errors can be resolved by an out-of-band privileged action
	CategoryPolicy ErrorCategory = "POLICY"
	// CategoryNotFound errors mean a referenced entity does not exist
	CategoryNotFound ErrorCategory = "NOT_FOUND"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Category ErrorCategory `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// It lets callers match sentinels with errors.Is even when the message carries detail.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Code:     e.Code,
		Message:  message,
		Category: e.Category,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:     code,
		Message:  message,
		Category: CategoryValidation,
	}
}

// NewStateError creates a domain error for lifecycle violations
func NewStateError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Category: CategoryState}
}

// NewPolicyError creates a domain error for policy violations
func NewPolicyError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Category: CategoryPolicy}
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Code: "NOT_FOUND", Message: "Resource not found", Category: CategoryNotFound}
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewStateError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden           = NewPolicyError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewStateError("INVALID_STATE", "Operation not allowed in current state")
)

// IsRetryable reports whether an operation that failed with err may be retried as a whole.
// Domain errors are never retried; anything else is treated as an infrastructure failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var domainErr *DomainError
	return !errors.As(err, &domainErr)
}
