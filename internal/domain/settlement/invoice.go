package settlement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the settlement state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusPosted        InvoiceStatus = "POSTED"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
)

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPosted, InvoiceStatusPartiallyPaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// IsOpen returns true if the invoice contributes to outstanding exposure
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusPosted || s == InvoiceStatusPartiallyPaid
}

// DeriveInvoiceStatus is the status implied by the received amount
func DeriveInvoiceStatus(received, grandTotal decimal.Decimal) InvoiceStatus {
	switch {
	case received.GreaterThanOrEqual(grandTotal):
		return InvoiceStatusPaid
	case received.IsPositive():
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusPosted
	}
}

// Invoice is the outstanding-tracking view of a sales or purchase invoice
type Invoice struct {
	shared.TenantAggregateRoot
	Number         string
	PartyLedgerID  uuid.UUID
	Currency       valueobject.Currency
	InvoiceDate    time.Time
	GrandTotal     decimal.Decimal
	AmountReceived decimal.Decimal
	Status         InvoiceStatus
}

// NewInvoice creates a draft invoice
func NewInvoice(
	tenantID uuid.UUID,
	number string,
	partyLedgerID uuid.UUID,
	currency valueobject.Currency,
	grandTotal decimal.Decimal,
	invoiceDate time.Time,
) (*Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrInvalidInvoice.WithMessage("Invoice number cannot be empty")
	}
	if partyLedgerID == uuid.Nil {
		return nil, ErrInvalidInvoice.WithMessage("Invoice party ledger is required")
	}
	if !grandTotal.IsPositive() {
		return nil, ErrInvalidInvoice.WithMessage("Invoice grand total must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		PartyLedgerID:       partyLedgerID,
		Currency:            currency,
		InvoiceDate:         invoiceDate,
		GrandTotal:          grandTotal,
		AmountReceived:      decimal.Zero,
		Status:              InvoiceStatusDraft,
	}, nil
}

// Post makes a draft invoice open for settlement
func (i *Invoice) Post() error {
	if i.Status != InvoiceStatusDraft {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Invoice %s is already %s", i.Number, i.Status))
	}
	i.Status = DeriveInvoiceStatus(i.AmountReceived, i.GrandTotal)
	i.IncrementVersion()
	return nil
}

// Outstanding returns grand total minus amount received, floored at zero
func (i *Invoice) Outstanding() decimal.Decimal {
	out := i.GrandTotal.Sub(i.AmountReceived)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// ApplyReceipt increases the received amount. The amount must already be rounded.
func (i *Invoice) ApplyReceipt(amount decimal.Decimal) error {
	if i.Status == InvoiceStatusDraft {
		return ErrInvoiceNotPayable.WithMessage(fmt.Sprintf("Invoice %s is not posted", i.Number))
	}
	if !amount.IsPositive() {
		return accounting.ErrInvalidAmount.WithMessage("Applied amount must be greater than zero")
	}
	if amount.GreaterThan(i.Outstanding()) {
		return overpayment(i, amount)
	}
	i.AmountReceived = i.AmountReceived.Add(amount)
	i.Status = DeriveInvoiceStatus(i.AmountReceived, i.GrandTotal)
	i.IncrementVersion()
	return nil
}

// RecomputeReceived replaces the received amount with a total derived from
// the posted payment lines and re-derives the status
func (i *Invoice) RecomputeReceived(received decimal.Decimal) {
	if received.IsNegative() {
		received = decimal.Zero
	}
	i.AmountReceived = received
	if i.Status != InvoiceStatusDraft {
		i.Status = DeriveInvoiceStatus(received, i.GrandTotal)
	}
	i.IncrementVersion()
}

func overpayment(i *Invoice, amount decimal.Decimal) error {
	return ErrOverpayment.WithMessage(fmt.Sprintf(
		"Applying %s to invoice %s exceeds outstanding %s", amount.String(), i.Number, i.Outstanding().String()))
}

// CreditExposure is Σ(grand total) − Σ(received) over open invoices, floored at zero
func CreditExposure(invoices []*Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		if !inv.Status.IsOpen() {
			continue
		}
		total = total.Add(inv.GrandTotal).Sub(inv.AmountReceived)
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
