package dto

import (
	"net/http"

	"github.com/erp/ledger/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for infrastructure failures; the request may be retried
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	// ErrCodeValidation is used when request binding or field validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeTenantRequired is used when the X-Tenant-ID header is missing or malformed
	ErrCodeTenantRequired = "ERR_TENANT_REQUIRED"
	// ErrCodeUnauthorized is used when a mutating request names no actor
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the actor lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeInvalidIdempotencyKey is used when the Idempotency-Key header is unusable
	ErrCodeInvalidIdempotencyKey = "ERR_INVALID_IDEMPOTENCY_KEY"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Voucher lifecycle error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeAlreadyPosted is used when posting a voucher that left DRAFT
	ErrCodeAlreadyPosted = "ERR_ALREADY_POSTED"
	// ErrCodeAlreadyReversed is used when reversing a voucher twice
	ErrCodeAlreadyReversed = "ERR_ALREADY_REVERSED"
	// ErrCodeNotPosted is used when reversing a voucher that was never posted
	ErrCodeNotPosted = "ERR_NOT_POSTED"
	// ErrCodeInvoiceNotPayable is used when allocating to a cancelled or draft invoice
	ErrCodeInvoiceNotPayable = "ERR_INVOICE_NOT_PAYABLE"
	// ErrCodePeriodOpen is used when archiving a period that is not closed yet
	ErrCodePeriodOpen = "ERR_PERIOD_OPEN"
)

// Posting rule error codes
const (
	ErrCodeUnbalancedEntry     = "ERR_UNBALANCED_ENTRY"
	ErrCodeMissingLeg          = "ERR_MISSING_LEG"
	ErrCodeInvalidAmount       = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidEntryKind    = "ERR_INVALID_ENTRY_KIND"
	ErrCodeInvalidVoucher      = "ERR_INVALID_VOUCHER"
	ErrCodeOverpayment         = "ERR_OVERPAYMENT"
	ErrCodeMissingCounterparty = "ERR_MISSING_COUNTERPARTY"
	ErrCodeCurrencyMismatch    = "ERR_CURRENCY_MISMATCH"
	ErrCodeInvalidPayment      = "ERR_INVALID_PAYMENT"
	ErrCodeInvalidInvoice      = "ERR_INVALID_INVOICE"
)

// Policy error codes
const (
	// ErrCodePeriodClosed is used when the voucher date falls into a closed period
	ErrCodePeriodClosed = "ERR_PERIOD_CLOSED"
	// ErrCodeInactiveResource is used when a line references an inactive ledger
	ErrCodeInactiveResource = "ERR_INACTIVE_RESOURCE"
	// ErrCodeArchiveDisabled is used when archiving without an archive store
	ErrCodeArchiveDisabled = "ERR_ARCHIVE_DISABLED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeTenantRequired:  http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeInvalidIdempotencyKey: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Repeating a finished transition conflicts with the stored state
	ErrCodeAlreadyPosted:     http.StatusConflict,
	ErrCodeAlreadyReversed:   http.StatusConflict,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeNotPosted:         http.StatusUnprocessableEntity,
	ErrCodeInvoiceNotPayable: http.StatusUnprocessableEntity,
	ErrCodePeriodOpen:        http.StatusConflict,

	ErrCodeUnbalancedEntry:     http.StatusUnprocessableEntity,
	ErrCodeMissingLeg:          http.StatusUnprocessableEntity,
	ErrCodeInvalidAmount:       http.StatusUnprocessableEntity,
	ErrCodeInvalidEntryKind:    http.StatusUnprocessableEntity,
	ErrCodeInvalidVoucher:      http.StatusUnprocessableEntity,
	ErrCodeOverpayment:         http.StatusUnprocessableEntity,
	ErrCodeMissingCounterparty: http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch:    http.StatusUnprocessableEntity,
	ErrCodeInvalidPayment:      http.StatusUnprocessableEntity,
	ErrCodeInvalidInvoice:      http.StatusUnprocessableEntity,

	ErrCodePeriodClosed:     http.StatusLocked,
	ErrCodeInactiveResource: http.StatusUnprocessableEntity,
	ErrCodeArchiveDisabled:  http.StatusServiceUnavailable,
}

// categoryHTTPStatus is the fallback for domain codes missing from ErrorCodeHTTPStatus
var categoryHTTPStatus = map[shared.ErrorCategory]int{
	shared.CategoryValidation: http.StatusUnprocessableEntity,
	shared.CategoryState:      http.StatusConflict,
	shared.CategoryPolicy:     http.StatusForbidden,
	shared.CategoryNotFound:   http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorStatus returns the HTTP status for a domain error, falling back
// to its category when the code has no explicit mapping
func DomainErrorStatus(err *shared.DomainError) int {
	if status, ok := ErrorCodeHTTPStatus[NormalizeErrorCode(err.Code)]; ok {
		return status
	}
	if status, ok := categoryHTTPStatus[err.Category]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"ALREADY_POSTED":       ErrCodeAlreadyPosted,
	"ALREADY_REVERSED":     ErrCodeAlreadyReversed,
	"NOT_POSTED":           ErrCodeNotPosted,
	"INVOICE_NOT_PAYABLE":  ErrCodeInvoiceNotPayable,
	"PERIOD_OPEN":          ErrCodePeriodOpen,
	"UNBALANCED_ENTRY":     ErrCodeUnbalancedEntry,
	"MISSING_LEG":          ErrCodeMissingLeg,
	"INVALID_AMOUNT":       ErrCodeInvalidAmount,
	"INVALID_ENTRY_KIND":   ErrCodeInvalidEntryKind,
	"INVALID_VOUCHER":      ErrCodeInvalidVoucher,
	"OVERPAYMENT":          ErrCodeOverpayment,
	"MISSING_COUNTERPARTY": ErrCodeMissingCounterparty,
	"CURRENCY_MISMATCH":    ErrCodeCurrencyMismatch,
	"INVALID_PAYMENT":      ErrCodeInvalidPayment,
	"INVALID_INVOICE":      ErrCodeInvalidInvoice,
	"PERIOD_CLOSED":        ErrCodePeriodClosed,
	"INACTIVE_RESOURCE":    ErrCodeInactiveResource,
	"ARCHIVE_DISABLED":     ErrCodeArchiveDisabled,

	"INVALID_IDEMPOTENCY_KEY": ErrCodeInvalidIdempotencyKey,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
