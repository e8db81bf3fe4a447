package accounting

import "github.com/erp/ledger/internal/domain/shared"

// State errors: the caller acted on a voucher in the wrong lifecycle state.
var (
	ErrAlreadyPosted   = shared.NewStateError("ALREADY_POSTED", "Voucher is already posted")
	ErrAlreadyReversed = shared.NewStateError("ALREADY_REVERSED", "Voucher is already reversed")
	ErrNotPosted       = shared.NewStateError("NOT_POSTED", "Voucher is not posted")
	ErrPeriodOpen      = shared.NewStateError("PERIOD_OPEN", "Accounting period is still open")
)

// Validation errors: the input must be corrected before resubmitting.
var (
	ErrUnbalancedEntry  = shared.NewDomainError("UNBALANCED_ENTRY", "Debit and credit totals do not balance")
	ErrMissingLeg       = shared.NewDomainError("MISSING_LEG", "Voucher needs at least one debit and one credit line")
	ErrInvalidAmount    = shared.NewDomainError("INVALID_AMOUNT", "Amount must be greater than zero")
	ErrInvalidEntryKind = shared.NewDomainError("INVALID_ENTRY_KIND", "Entry kind must be DR or CR")
	ErrInvalidVoucher   = shared.NewDomainError("INVALID_VOUCHER", "Voucher is invalid")
)

// Policy errors: resolvable by reopening a period or reactivating a resource.
var (
	ErrPeriodClosed     = shared.NewPolicyError("PERIOD_CLOSED", "Accounting period is closed")
	ErrInactiveResource = shared.NewPolicyError("INACTIVE_RESOURCE", "Referenced resource is inactive")
)
