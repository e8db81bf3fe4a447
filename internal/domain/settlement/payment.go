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

// Direction is the cash flow direction of a payment
type Direction string

const (
	DirectionPayment Direction = "PAYMENT" // Outflow to a supplier
	DirectionReceipt Direction = "RECEIPT" // Inflow from a customer
)

// IsValid checks if the direction is known
func (d Direction) IsValid() bool {
	return d == DirectionPayment || d == DirectionReceipt
}

// VoucherType returns the voucher type that records this direction
func (d Direction) VoucherType() accounting.VoucherType {
	if d == DirectionPayment {
		return accounting.VoucherTypePayment
	}
	return accounting.VoucherTypeReceipt
}

// PaymentMode is the instrument the money moved through
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentModeCheque       PaymentMode = "CHEQUE"
	PaymentModeCard         PaymentMode = "CARD"
	PaymentModeOther        PaymentMode = "OTHER"
)

// IsValid checks if the payment mode is known
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeBankTransfer, PaymentModeCheque, PaymentModeCard, PaymentModeOther:
		return true
	}
	return false
}

// PaymentStatus follows the status of the voucher that records the payment
type PaymentStatus string

const (
	PaymentStatusDraft    PaymentStatus = "DRAFT"
	PaymentStatusPosted   PaymentStatus = "POSTED"
	PaymentStatusReversed PaymentStatus = "REVERSED"
)

// PaymentLine allocates part of a payment to an invoice, or to nothing (an advance)
type PaymentLine struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	InvoiceID *uuid.UUID
	Amount    decimal.Decimal
}

// IsAdvance returns true if the line does not target an invoice
func (l PaymentLine) IsAdvance() bool {
	return l.InvoiceID == nil
}

// Payment carries the settlement metadata of a PAYMENT or RECEIPT voucher
type Payment struct {
	shared.TenantAggregateRoot
	VoucherID     uuid.UUID
	Direction     Direction
	PartyLedgerID *uuid.UUID
	BankLedgerID  uuid.UUID
	Mode          PaymentMode
	Reference     string
	Currency      valueobject.Currency
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Status        PaymentStatus
	Lines         []PaymentLine
	PostedAt      *time.Time
}

// NewPayment creates a draft payment for the given voucher
func NewPayment(
	tenantID uuid.UUID,
	voucherID uuid.UUID,
	direction Direction,
	partyLedgerID *uuid.UUID,
	bankLedgerID uuid.UUID,
	mode PaymentMode,
	currency valueobject.Currency,
	amount decimal.Decimal,
	paymentDate time.Time,
) (*Payment, error) {
	if !direction.IsValid() {
		return nil, ErrInvalidPayment.WithMessage(fmt.Sprintf("Unknown payment direction %q", direction))
	}
	if bankLedgerID == uuid.Nil {
		return nil, ErrInvalidPayment.WithMessage("Bank or cash ledger is required")
	}
	if mode == "" {
		mode = PaymentModeBankTransfer
	}
	if !mode.IsValid() {
		return nil, ErrInvalidPayment.WithMessage(fmt.Sprintf("Unknown payment mode %q", mode))
	}
	if !amount.IsPositive() {
		return nil, accounting.ErrInvalidAmount.WithMessage("Payment amount must be greater than zero")
	}
	if partyLedgerID != nil && *partyLedgerID == bankLedgerID {
		return nil, ErrInvalidPayment.WithMessage("Counterparty and bank ledger must differ")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VoucherID:           voucherID,
		Direction:           direction,
		PartyLedgerID:       partyLedgerID,
		BankLedgerID:        bankLedgerID,
		Mode:                mode,
		Currency:            currency,
		Amount:              amount,
		PaymentDate:         paymentDate,
		Status:              PaymentStatusDraft,
		Lines:               make([]PaymentLine, 0),
	}, nil
}

// SetReference records the bank transaction or cheque reference
func (p *Payment) SetReference(reference string) {
	p.Reference = strings.TrimSpace(reference)
}

// AddLine allocates amount to an invoice, or records an advance when invoiceID is nil
func (p *Payment) AddLine(invoiceID *uuid.UUID, amount decimal.Decimal) error {
	if p.Status != PaymentStatusDraft {
		return accounting.ErrAlreadyPosted.WithMessage("Payment lines cannot change after posting")
	}
	if !amount.IsPositive() {
		return accounting.ErrInvalidAmount.WithMessage("Payment line amount must be greater than zero")
	}
	p.Lines = append(p.Lines, PaymentLine{
		ID:        uuid.New(),
		PaymentID: p.ID,
		InvoiceID: invoiceID,
		Amount:    amount,
	})
	return nil
}

// InvoiceIDs returns the distinct invoices targeted by the lines
func (p *Payment) InvoiceIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.InvoiceID == nil {
			continue
		}
		if _, ok := seen[*l.InvoiceID]; ok {
			continue
		}
		seen[*l.InvoiceID] = struct{}{}
		ids = append(ids, *l.InvoiceID)
	}
	return ids
}

// MarkPosted records that the payment's voucher was posted
func (p *Payment) MarkPosted(at time.Time) error {
	if p.Status != PaymentStatusDraft {
		return accounting.ErrAlreadyPosted.WithMessage(fmt.Sprintf("Payment is already %s", p.Status))
	}
	p.Status = PaymentStatusPosted
	p.PostedAt = &at
	p.IncrementVersion()
	return nil
}

// MarkReversed records that the payment's voucher was reversed
func (p *Payment) MarkReversed() error {
	if p.Status != PaymentStatusPosted {
		return accounting.ErrNotPosted.WithMessage(fmt.Sprintf("Payment is %s, expected POSTED", p.Status))
	}
	p.Status = PaymentStatusReversed
	p.IncrementVersion()
	return nil
}
