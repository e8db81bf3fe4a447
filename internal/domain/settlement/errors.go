package settlement

import "github.com/erp/ledger/internal/domain/shared"

var (
	ErrOverpayment         = shared.NewDomainError("OVERPAYMENT", "Applied amount exceeds invoice outstanding")
	ErrMissingCounterparty = shared.NewDomainError("MISSING_COUNTERPARTY", "Unapplied amount requires a counterparty")
	ErrCurrencyMismatch    = shared.NewDomainError("CURRENCY_MISMATCH", "Invoice currency differs from payment currency")
	ErrInvalidPayment      = shared.NewDomainError("INVALID_PAYMENT", "Payment is invalid")
	ErrInvalidInvoice      = shared.NewDomainError("INVALID_INVOICE", "Invoice is invalid")
	ErrInvoiceNotPayable   = shared.NewStateError("INVOICE_NOT_PAYABLE", "Invoice is not open for settlement")
)
