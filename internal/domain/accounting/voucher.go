package accounting

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// VoucherType is the business category of a voucher
type VoucherType string

const (
	VoucherTypeJournal    VoucherType = "JOURNAL"
	VoucherTypePayment    VoucherType = "PAYMENT"
	VoucherTypeReceipt    VoucherType = "RECEIPT"
	VoucherTypeContra     VoucherType = "CONTRA"
	VoucherTypeSales      VoucherType = "SALES"
	VoucherTypePurchase   VoucherType = "PURCHASE"
	VoucherTypeDebitNote  VoucherType = "DEBIT_NOTE"
	VoucherTypeCreditNote VoucherType = "CREDIT_NOTE"
)

// IsValid checks if the voucher type is known
func (t VoucherType) IsValid() bool {
	switch t {
	case VoucherTypeJournal, VoucherTypePayment, VoucherTypeReceipt, VoucherTypeContra,
		VoucherTypeSales, VoucherTypePurchase, VoucherTypeDebitNote, VoucherTypeCreditNote:
		return true
	}
	return false
}

// String returns the string representation of VoucherType
func (t VoucherType) String() string {
	return string(t)
}

// VoucherStatus represents the lifecycle state of a voucher
type VoucherStatus string

const (
	VoucherStatusDraft     VoucherStatus = "DRAFT"     // Editable, no balance effect
	VoucherStatusPosted    VoucherStatus = "POSTED"    // Final, lines immutable
	VoucherStatusReversed  VoucherStatus = "REVERSED"  // Negated by a mirror voucher
	VoucherStatusCancelled VoucherStatus = "CANCELLED" // Abandoned draft
)

// IsValid checks if the status is a valid VoucherStatus
func (s VoucherStatus) IsValid() bool {
	switch s {
	case VoucherStatusDraft, VoucherStatusPosted, VoucherStatusReversed, VoucherStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of VoucherStatus
func (s VoucherStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible
func (s VoucherStatus) IsTerminal() bool {
	return s == VoucherStatusReversed || s == VoucherStatusCancelled
}

// Voucher is one double-entry accounting transaction header and its lines
type Voucher struct {
	shared.TenantAggregateRoot
	VoucherType    VoucherType
	PeriodID       *uuid.UUID
	Number         string
	VoucherDate    time.Time
	Currency       valueobject.Currency
	Narration      string
	Status         VoucherStatus
	Lines          []VoucherLine
	ReversalOfID   *uuid.UUID
	ReversedByID   *uuid.UUID
	PostedAt       *time.Time
	PostedBy       *uuid.UUID
	ReversedAt     *time.Time
	ReversedBy     *uuid.UUID
	ReversalReason string
	CancelledAt    *time.Time
}

// NewVoucher creates a draft voucher. The number is assigned by the sequence generator.
func NewVoucher(
	tenantID uuid.UUID,
	voucherType VoucherType,
	periodID *uuid.UUID,
	voucherDate time.Time,
	currency valueobject.Currency,
	narration string,
) (*Voucher, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidVoucher.WithMessage("Tenant ID cannot be empty")
	}
	if !voucherType.IsValid() {
		return nil, ErrInvalidVoucher.WithMessage(fmt.Sprintf("Unknown voucher type %q", voucherType))
	}
	if voucherDate.IsZero() {
		return nil, ErrInvalidVoucher.WithMessage("Voucher date is required")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if len(narration) > 500 {
		return nil, ErrInvalidVoucher.WithMessage("Narration cannot exceed 500 characters")
	}

	return &Voucher{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VoucherType:         voucherType,
		PeriodID:            periodID,
		VoucherDate:         voucherDate,
		Currency:            currency,
		Narration:           strings.TrimSpace(narration),
		Status:              VoucherStatusDraft,
		Lines:               make([]VoucherLine, 0),
	}, nil
}

// AssignNumber sets the human-readable number minted for the draft
func (v *Voucher) AssignNumber(number string) error {
	if v.Number != "" {
		return ErrInvalidVoucher.WithMessage(fmt.Sprintf("Voucher already numbered %s", v.Number))
	}
	if number == "" {
		return ErrInvalidVoucher.WithMessage("Voucher number cannot be empty")
	}
	v.Number = number
	return nil
}

// AddLine appends a line to a draft voucher
func (v *Voucher) AddLine(line VoucherLine) error {
	if err := GuardDraft(v); err != nil {
		return err
	}
	line.VoucherID = v.ID
	line.LineNo = len(v.Lines) + 1
	v.Lines = append(v.Lines, line)
	v.Touch()
	return nil
}

// SetLines replaces all lines of a draft voucher
func (v *Voucher) SetLines(lines []VoucherLine) error {
	if err := GuardDraft(v); err != nil {
		return err
	}
	v.Lines = make([]VoucherLine, 0, len(lines))
	for _, l := range lines {
		l.VoucherID = v.ID
		l.LineNo = len(v.Lines) + 1
		v.Lines = append(v.Lines, l)
	}
	v.Touch()
	return nil
}

// Renumber makes line numbers dense and 1-based, preserving order
func (v *Voucher) Renumber() {
	for i := range v.Lines {
		v.Lines[i].VoucherID = v.ID
		v.Lines[i].LineNo = i + 1
	}
}

// Totals returns the DR and CR sums of the voucher's lines
func (v *Voucher) Totals() Totals {
	return SumLines(v.Lines)
}

// Post transitions the voucher to POSTED. Guards and validation run before this.
func (v *Voucher) Post(actor uuid.UUID, at time.Time) error {
	if err := GuardDraft(v); err != nil {
		return err
	}
	v.Status = VoucherStatusPosted
	v.PostedAt = &at
	v.PostedBy = &actor
	v.IncrementVersion()
	v.AddDomainEvent(NewVoucherPostedEvent(v))
	return nil
}

// MarkReversed flags a posted voucher as negated by the given mirror voucher
func (v *Voucher) MarkReversed(reversalID, actor uuid.UUID, reason string, at time.Time) error {
	if err := GuardPostedOnly(v); err != nil {
		return err
	}
	v.Status = VoucherStatusReversed
	v.ReversedByID = &reversalID
	v.ReversedBy = &actor
	v.ReversedAt = &at
	v.ReversalReason = reason
	v.IncrementVersion()
	v.AddDomainEvent(NewVoucherReversedEvent(v))
	return nil
}

// Cancel abandons a draft voucher
func (v *Voucher) Cancel(actor uuid.UUID, at time.Time) error {
	if err := GuardDraft(v); err != nil {
		return err
	}
	v.Status = VoucherStatusCancelled
	v.CancelledAt = &at
	v.IncrementVersion()
	v.AddDomainEvent(NewVoucherCancelledEvent(v, actor))
	return nil
}

// NewMirror builds the draft that negates this voucher: same ledgers and
// magnitudes with flipped entry kinds, same period and type, linked back.
func (v *Voucher) NewMirror(voucherDate time.Time, reason string) (*Voucher, error) {
	narration := fmt.Sprintf("Reversal of %s", v.Number)
	if reason != "" {
		narration = fmt.Sprintf("%s: %s", narration, reason)
	}
	if len(narration) > 500 {
		narration = narration[:500]
	}
	mirror, err := NewVoucher(v.TenantID, v.VoucherType, v.PeriodID, voucherDate, v.Currency, narration)
	if err != nil {
		return nil, err
	}
	originalID := v.ID
	mirror.ReversalOfID = &originalID

	lines := make([]VoucherLine, 0, len(v.Lines))
	for _, l := range v.Lines {
		m := l.Mirror()
		against := originalID
		m.AgainstVoucherID = &against
		lines = append(lines, m)
	}
	if err := mirror.SetLines(lines); err != nil {
		return nil, err
	}
	return mirror, nil
}

// IsReversal reports whether this voucher negates another one
func (v *Voucher) IsReversal() bool {
	return v.ReversalOfID != nil
}
