package accounting

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeVoucherPosted    = "ledger.voucher.posted"
	EventTypeVoucherReversed  = "ledger.voucher.reversed"
	EventTypeVoucherCancelled = "ledger.voucher.cancelled"
)

// AggregateTypeVoucher is the aggregate type recorded on voucher events
const AggregateTypeVoucher = "Voucher"

// VoucherLineEvent is the line payload carried by posting events
type VoucherLineEvent struct {
	LineNo    int             `json:"line_no"`
	LedgerID  uuid.UUID       `json:"ledger_id"`
	EntryKind EntryKind       `json:"entry_kind"`
	Amount    decimal.Decimal `json:"amount"`
}

// VoucherPostedEvent is raised when a voucher's effects become final
type VoucherPostedEvent struct {
	shared.BaseDomainEvent
	VoucherID    uuid.UUID          `json:"voucher_id"`
	Number       string             `json:"number"`
	VoucherType  VoucherType        `json:"voucher_type"`
	PeriodID     *uuid.UUID         `json:"period_id,omitempty"`
	Currency     string             `json:"currency"`
	VoucherDate  time.Time          `json:"voucher_date"`
	TotalDebit   decimal.Decimal    `json:"total_debit"`
	TotalCredit  decimal.Decimal    `json:"total_credit"`
	ReversalOfID *uuid.UUID         `json:"reversal_of_id,omitempty"`
	PostedBy     uuid.UUID          `json:"posted_by"`
	PostedAt     time.Time          `json:"posted_at"`
	Lines        []VoucherLineEvent `json:"lines"`
}

// NewVoucherPostedEvent creates a VoucherPostedEvent
func NewVoucherPostedEvent(v *Voucher) *VoucherPostedEvent {
	totals := v.Totals()
	lines := make([]VoucherLineEvent, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, VoucherLineEvent{
			LineNo:    l.LineNo,
			LedgerID:  l.LedgerID,
			EntryKind: l.EntryKind,
			Amount:    l.Amount,
		})
	}
	e := &VoucherPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherPosted, AggregateTypeVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		Number:          v.Number,
		VoucherType:     v.VoucherType,
		PeriodID:        v.PeriodID,
		Currency:        string(v.Currency),
		VoucherDate:     v.VoucherDate,
		TotalDebit:      totals.Debit,
		TotalCredit:     totals.Credit,
		ReversalOfID:    v.ReversalOfID,
		Lines:           lines,
	}
	if v.PostedBy != nil {
		e.PostedBy = *v.PostedBy
	}
	if v.PostedAt != nil {
		e.PostedAt = *v.PostedAt
	}
	return e
}

// VoucherReversedEvent is raised when a posted voucher is negated
type VoucherReversedEvent struct {
	shared.BaseDomainEvent
	VoucherID    uuid.UUID `json:"voucher_id"`
	Number       string    `json:"number"`
	ReversedByID uuid.UUID `json:"reversed_by_id"`
	ReversedBy   uuid.UUID `json:"reversed_by"`
	Reason       string    `json:"reason"`
	ReversedAt   time.Time `json:"reversed_at"`
}

// NewVoucherReversedEvent creates a VoucherReversedEvent
func NewVoucherReversedEvent(v *Voucher) *VoucherReversedEvent {
	e := &VoucherReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherReversed, AggregateTypeVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		Number:          v.Number,
		Reason:          v.ReversalReason,
	}
	if v.ReversedByID != nil {
		e.ReversedByID = *v.ReversedByID
	}
	if v.ReversedBy != nil {
		e.ReversedBy = *v.ReversedBy
	}
	if v.ReversedAt != nil {
		e.ReversedAt = *v.ReversedAt
	}
	return e
}

// VoucherCancelledEvent is raised when a draft is abandoned
type VoucherCancelledEvent struct {
	shared.BaseDomainEvent
	VoucherID   uuid.UUID `json:"voucher_id"`
	Number      string    `json:"number"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
}

// NewVoucherCancelledEvent creates a VoucherCancelledEvent
func NewVoucherCancelledEvent(v *Voucher, actor uuid.UUID) *VoucherCancelledEvent {
	return &VoucherCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherCancelled, AggregateTypeVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		Number:          v.Number,
		CancelledBy:     actor,
	}
}
