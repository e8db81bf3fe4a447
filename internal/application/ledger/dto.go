package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================
// Voucher DTOs
// ============================================

// VoucherLineRequest is one candidate line of a draft voucher
type VoucherLineRequest struct {
	LedgerID         uuid.UUID       `json:"ledger_id" binding:"required"`
	EntryKind        string          `json:"entry_kind" binding:"required,oneof=DR CR"`
	Amount           decimal.Decimal `json:"amount"`
	CostCenterID     *uuid.UUID      `json:"cost_center_id"`
	AgainstVoucherID *uuid.UUID      `json:"against_voucher_id"`
	Narration        string          `json:"narration" binding:"max=255"`
}

// CreateVoucherRequest creates a numbered draft voucher
type CreateVoucherRequest struct {
	VoucherType string               `json:"voucher_type" binding:"required,oneof=JOURNAL PAYMENT RECEIPT CONTRA SALES PURCHASE DEBIT_NOTE CREDIT_NOTE"`
	PeriodID    *uuid.UUID           `json:"period_id"`
	VoucherDate time.Time            `json:"voucher_date" binding:"required"`
	Currency    string               `json:"currency" binding:"omitempty,len=3"`
	Narration   string               `json:"narration" binding:"max=500"`
	Lines       []VoucherLineRequest `json:"lines" binding:"required,min=2,dive"`
	CreatedBy   *uuid.UUID           `json:"-"`
}

// PostVoucherRequest posts a draft voucher
type PostVoucherRequest struct {
	VoucherID      uuid.UUID `json:"-"`
	ActorID        uuid.UUID `json:"-"`
	IdempotencyKey string    `json:"-"`
	OverridePeriod bool      `json:"override_period"`
}

// ReverseVoucherRequest reverses a posted voucher
type ReverseVoucherRequest struct {
	VoucherID      uuid.UUID `json:"-"`
	ActorID        uuid.UUID `json:"-"`
	IdempotencyKey string    `json:"-"`
	Reason         string    `json:"reason" binding:"required,max=255"`
	OverridePeriod bool      `json:"override_period"`
}

// CancelVoucherRequest abandons a draft voucher
type CancelVoucherRequest struct {
	VoucherID uuid.UUID `json:"-"`
	ActorID   uuid.UUID `json:"-"`
}

// VoucherLineResponse represents a voucher line in API responses
type VoucherLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	LineNo           int             `json:"line_no"`
	LedgerID         uuid.UUID       `json:"ledger_id"`
	EntryKind        string          `json:"entry_kind"`
	Amount           decimal.Decimal `json:"amount"`
	CostCenterID     *uuid.UUID      `json:"cost_center_id,omitempty"`
	AgainstVoucherID *uuid.UUID      `json:"against_voucher_id,omitempty"`
	Narration        string          `json:"narration,omitempty"`
}

// VoucherResponse represents a voucher in API responses
type VoucherResponse struct {
	ID             uuid.UUID             `json:"id"`
	TenantID       uuid.UUID             `json:"tenant_id"`
	VoucherType    string                `json:"voucher_type"`
	PeriodID       *uuid.UUID            `json:"period_id,omitempty"`
	Number         string                `json:"number"`
	VoucherDate    time.Time             `json:"voucher_date"`
	Currency       string                `json:"currency"`
	Narration      string                `json:"narration"`
	Status         string                `json:"status"`
	TotalDebit     decimal.Decimal       `json:"total_debit"`
	TotalCredit    decimal.Decimal       `json:"total_credit"`
	Lines          []VoucherLineResponse `json:"lines"`
	ReversalOfID   *uuid.UUID            `json:"reversal_of_id,omitempty"`
	ReversedByID   *uuid.UUID            `json:"reversed_by_id,omitempty"`
	PostedAt       *time.Time            `json:"posted_at,omitempty"`
	PostedBy       *uuid.UUID            `json:"posted_by,omitempty"`
	ReversedAt     *time.Time            `json:"reversed_at,omitempty"`
	ReversedBy     *uuid.UUID            `json:"reversed_by,omitempty"`
	ReversalReason string                `json:"reversal_reason,omitempty"`
	CancelledAt    *time.Time            `json:"cancelled_at,omitempty"`
	Version        int                   `json:"version"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	// Replayed is true when the result came from an earlier request with the same idempotency key
	Replayed bool `json:"replayed"`
}

// ToVoucherResponse converts a domain voucher to a response DTO
func ToVoucherResponse(v *accounting.Voucher) VoucherResponse {
	totals := v.Totals()
	lines := make([]VoucherLineResponse, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, VoucherLineResponse{
			ID:               l.ID,
			LineNo:           l.LineNo,
			LedgerID:         l.LedgerID,
			EntryKind:        l.EntryKind.String(),
			Amount:           l.Amount,
			CostCenterID:     l.CostCenterID,
			AgainstVoucherID: l.AgainstVoucherID,
			Narration:        l.Narration,
		})
	}
	return VoucherResponse{
		ID:             v.ID,
		TenantID:       v.TenantID,
		VoucherType:    v.VoucherType.String(),
		PeriodID:       v.PeriodID,
		Number:         v.Number,
		VoucherDate:    v.VoucherDate,
		Currency:       string(v.Currency),
		Narration:      v.Narration,
		Status:         v.Status.String(),
		TotalDebit:     totals.Debit,
		TotalCredit:    totals.Credit,
		Lines:          lines,
		ReversalOfID:   v.ReversalOfID,
		ReversedByID:   v.ReversedByID,
		PostedAt:       v.PostedAt,
		PostedBy:       v.PostedBy,
		ReversedAt:     v.ReversedAt,
		ReversedBy:     v.ReversedBy,
		ReversalReason: v.ReversalReason,
		CancelledAt:    v.CancelledAt,
		Version:        v.Version,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

// ============================================
// Payment DTOs
// ============================================

// PaymentLineRequest allocates part of a payment; no invoice means an advance
type PaymentLineRequest struct {
	InvoiceID *uuid.UUID      `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// CreatePaymentRequest creates a PAYMENT or RECEIPT voucher draft with its payment
type CreatePaymentRequest struct {
	Direction     string               `json:"direction" binding:"required,oneof=PAYMENT RECEIPT"`
	PartyLedgerID *uuid.UUID           `json:"party_ledger_id"`
	BankLedgerID  uuid.UUID            `json:"bank_ledger_id" binding:"required"`
	Mode          string               `json:"mode" binding:"omitempty,oneof=CASH BANK_TRANSFER CHEQUE CARD OTHER"`
	Reference     string               `json:"reference" binding:"max=100"`
	Currency      string               `json:"currency" binding:"omitempty,len=3"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentDate   time.Time            `json:"payment_date" binding:"required"`
	PeriodID      *uuid.UUID           `json:"period_id"`
	Narration     string               `json:"narration" binding:"max=500"`
	Lines         []PaymentLineRequest `json:"lines" binding:"dive"`
	CreatedBy     *uuid.UUID           `json:"-"`
}

// PostPaymentRequest posts the voucher of a payment and settles its invoices
type PostPaymentRequest struct {
	VoucherID      uuid.UUID `json:"-"`
	ActorID        uuid.UUID `json:"-"`
	IdempotencyKey string    `json:"-"`
	OverridePeriod bool      `json:"override_period"`
}

// PaymentLineResponse represents a payment line in API responses
type PaymentLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceID *uuid.UUID      `json:"invoice_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment and its voucher in API responses
type PaymentResponse struct {
	ID            uuid.UUID             `json:"id"`
	VoucherID     uuid.UUID             `json:"voucher_id"`
	Direction     string                `json:"direction"`
	PartyLedgerID *uuid.UUID            `json:"party_ledger_id,omitempty"`
	BankLedgerID  uuid.UUID             `json:"bank_ledger_id"`
	Mode          string                `json:"mode"`
	Reference     string                `json:"reference,omitempty"`
	Currency      string                `json:"currency"`
	Amount        decimal.Decimal       `json:"amount"`
	PaymentDate   time.Time             `json:"payment_date"`
	Status        string                `json:"status"`
	Lines         []PaymentLineResponse `json:"lines"`
	Voucher       *VoucherResponse      `json:"voucher,omitempty"`
}

// ToPaymentResponse converts a domain payment to a response DTO
func ToPaymentResponse(p *settlement.Payment, v *accounting.Voucher) PaymentResponse {
	lines := make([]PaymentLineResponse, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, PaymentLineResponse{ID: l.ID, InvoiceID: l.InvoiceID, Amount: l.Amount})
	}
	resp := PaymentResponse{
		ID:            p.ID,
		VoucherID:     p.VoucherID,
		Direction:     string(p.Direction),
		PartyLedgerID: p.PartyLedgerID,
		BankLedgerID:  p.BankLedgerID,
		Mode:          string(p.Mode),
		Reference:     p.Reference,
		Currency:      string(p.Currency),
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		Status:        string(p.Status),
		Lines:         lines,
	}
	if v != nil {
		vr := ToVoucherResponse(v)
		resp.Voucher = &vr
	}
	return resp
}

// ============================================
// Balance DTOs
// ============================================

// BalanceResponse is the cached balance of a ledger for a period or all time
type BalanceResponse struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	LedgerID      uuid.UUID       `json:"ledger_id"`
	PeriodID      *uuid.UUID      `json:"period_id,omitempty"`
	DebitTotal    decimal.Decimal `json:"debit_total"`
	CreditTotal   decimal.Decimal `json:"credit_total"`
	Net           decimal.Decimal `json:"net"`
	LastVoucherID *uuid.UUID      `json:"last_voucher_id,omitempty"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// CreditExposureResponse is the outstanding receivable or payable of a counterparty
type CreditExposureResponse struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	PartyLedgerID uuid.UUID       `json:"party_ledger_id"`
	Exposure      decimal.Decimal `json:"exposure"`
	OpenInvoices  int             `json:"open_invoices"`
}

// TrialBalanceLineResponse is one ledger's totals in a trial balance
type TrialBalanceLineResponse struct {
	LedgerID    uuid.UUID       `json:"ledger_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Nature      string          `json:"nature,omitempty"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	Net         decimal.Decimal `json:"net"`
}

// TrialBalanceResponse lists the balances of every ledger posted to in a period
type TrialBalanceResponse struct {
	TenantID    uuid.UUID                  `json:"tenant_id"`
	PeriodID    *uuid.UUID                 `json:"period_id,omitempty"`
	Lines       []TrialBalanceLineResponse `json:"lines"`
	TotalDebit  decimal.Decimal            `json:"total_debit"`
	TotalCredit decimal.Decimal            `json:"total_credit"`
	Balanced    bool                       `json:"balanced"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// ToTrialBalanceResponse converts a domain trial balance to a response DTO
func ToTrialBalanceResponse(tb *accounting.TrialBalance) TrialBalanceResponse {
	resp := TrialBalanceResponse{
		TenantID:    tb.TenantID,
		PeriodID:    tb.PeriodID,
		Lines:       make([]TrialBalanceLineResponse, len(tb.Lines)),
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Balanced:    tb.IsBalanced(),
		GeneratedAt: tb.GeneratedAt,
	}
	for i, l := range tb.Lines {
		resp.Lines[i] = TrialBalanceLineResponse{
			LedgerID:    l.LedgerID,
			Code:        l.Code,
			Name:        l.Name,
			Nature:      string(l.Nature),
			DebitTotal:  l.DebitTotal,
			CreditTotal: l.CreditTotal,
			Net:         l.Net(),
		}
	}
	return resp
}

// PeriodArchiveDocument is the JSON document written to archive storage when a
// closed period is archived
type PeriodArchiveDocument struct {
	Period       PeriodResponse       `json:"period"`
	TrialBalance TrialBalanceResponse `json:"trial_balance"`
	ArchivedBy   uuid.UUID            `json:"archived_by"`
	ArchivedAt   time.Time            `json:"archived_at"`
}

// PeriodArchiveResponse describes a stored period archive
type PeriodArchiveResponse struct {
	PeriodID    uuid.UUID       `json:"period_id"`
	Key         string          `json:"key"`
	Lines       int             `json:"lines"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balanced    bool            `json:"balanced"`
	ArchivedAt  time.Time       `json:"archived_at"`
}

// ============================================
// Master data DTOs
// ============================================

// CreateLedgerRequest adds an account to the chart of accounts
type CreateLedgerRequest struct {
	Code     string     `json:"code" binding:"required,max=50"`
	Name     string     `json:"name" binding:"required,max=200"`
	Nature   string     `json:"nature" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// LedgerResponse represents a ledger account in API responses
type LedgerResponse struct {
	ID       uuid.UUID  `json:"id"`
	Code     string     `json:"code"`
	Name     string     `json:"name"`
	Nature   string     `json:"nature"`
	Active   bool       `json:"active"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// ToLedgerResponse converts a domain ledger account to a response DTO
func ToLedgerResponse(a *accounting.LedgerAccount) LedgerResponse {
	return LedgerResponse{
		ID:       a.ID,
		Code:     a.Code,
		Name:     a.Name,
		Nature:   string(a.Nature),
		Active:   a.Active,
		ParentID: a.ParentID,
	}
}

// CreatePeriodRequest opens a new accounting period
type CreatePeriodRequest struct {
	Name      string    `json:"name" binding:"required,max=50"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// PeriodResponse represents an accounting period in API responses
type PeriodResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Status    string     `json:"status"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// ToPeriodResponse converts a domain period to a response DTO
func ToPeriodResponse(p *accounting.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		ID:        p.ID,
		Name:      p.Name,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Status:    string(p.Status),
		ClosedAt:  p.ClosedAt,
	}
}

// RegisterInvoiceRequest records a posted invoice handed over by the invoicing workflow
type RegisterInvoiceRequest struct {
	Number        string          `json:"number" binding:"required,max=50"`
	PartyLedgerID uuid.UUID       `json:"party_ledger_id" binding:"required"`
	Currency      string          `json:"currency" binding:"omitempty,len=3"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	InvoiceDate   time.Time       `json:"invoice_date" binding:"required"`
}

// InvoiceResponse represents the outstanding view of an invoice
type InvoiceResponse struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	PartyLedgerID  uuid.UUID       `json:"party_ledger_id"`
	Currency       string          `json:"currency"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Status         string          `json:"status"`
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(i *settlement.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             i.ID,
		Number:         i.Number,
		PartyLedgerID:  i.PartyLedgerID,
		Currency:       string(i.Currency),
		GrandTotal:     i.GrandTotal,
		AmountReceived: i.AmountReceived,
		Outstanding:    i.Outstanding(),
		Status:         string(i.Status),
	}
}
