package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the outstanding view of an invoice
type InvoiceModel struct {
	TenantAggregateModel
	Number         string                   `gorm:"type:varchar(50);not null"`
	PartyLedgerID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	Currency       string                   `gorm:"type:varchar(3);not null"`
	InvoiceDate    time.Time                `gorm:"not null"`
	GrandTotal     decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AmountReceived decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Status         settlement.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *settlement.Invoice {
	return &settlement.Invoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Number:              m.Number,
		PartyLedgerID:       m.PartyLedgerID,
		Currency:            valueobject.Currency(m.Currency),
		InvoiceDate:         m.InvoiceDate,
		GrandTotal:          m.GrandTotal,
		AmountReceived:      m.AmountReceived,
		Status:              m.Status,
	}
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(i *settlement.Invoice) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.Number = i.Number
	m.PartyLedgerID = i.PartyLedgerID
	m.Currency = string(i.Currency)
	m.InvoiceDate = i.InvoiceDate
	m.GrandTotal = i.GrandTotal
	m.AmountReceived = i.AmountReceived
	m.Status = i.Status
}

// PaymentModel is the persistence model for the Payment aggregate root
type PaymentModel struct {
	TenantAggregateModel
	VoucherID     uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex"`
	Direction     settlement.Direction     `gorm:"type:varchar(10);not null"`
	PartyLedgerID *uuid.UUID               `gorm:"type:uuid;index"`
	BankLedgerID  uuid.UUID                `gorm:"type:uuid;not null"`
	Mode          settlement.PaymentMode   `gorm:"type:varchar(20);not null"`
	Reference     string                   `gorm:"type:varchar(100)"`
	Currency      string                   `gorm:"type:varchar(3);not null"`
	Amount        decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PaymentDate   time.Time                `gorm:"not null"`
	Status        settlement.PaymentStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PostedAt      *time.Time
	Lines         []PaymentLineModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *settlement.Payment {
	p := &settlement.Payment{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		VoucherID:           m.VoucherID,
		Direction:           m.Direction,
		PartyLedgerID:       m.PartyLedgerID,
		BankLedgerID:        m.BankLedgerID,
		Mode:                m.Mode,
		Reference:           m.Reference,
		Currency:            valueobject.Currency(m.Currency),
		Amount:              m.Amount,
		PaymentDate:         m.PaymentDate,
		Status:              m.Status,
		PostedAt:            m.PostedAt,
		Lines:               make([]settlement.PaymentLine, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		p.Lines = append(p.Lines, m.Lines[i].ToDomain())
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment, lines included
func (m *PaymentModel) FromDomain(p *settlement.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.VoucherID = p.VoucherID
	m.Direction = p.Direction
	m.PartyLedgerID = p.PartyLedgerID
	m.BankLedgerID = p.BankLedgerID
	m.Mode = p.Mode
	m.Reference = p.Reference
	m.Currency = string(p.Currency)
	m.Amount = p.Amount
	m.PaymentDate = p.PaymentDate
	m.Status = p.Status
	m.PostedAt = p.PostedAt
	m.Lines = make([]PaymentLineModel, len(p.Lines))
	for i, l := range p.Lines {
		m.Lines[i] = PaymentLineModel{
			ID:        l.ID,
			TenantID:  p.TenantID,
			PaymentID: p.ID,
			InvoiceID: l.InvoiceID,
			Amount:    l.Amount,
			LineNo:    i + 1,
		}
	}
}

// PaymentLineModel is the persistence model for a payment allocation line
type PaymentLineModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID *uuid.UUID      `gorm:"type:uuid;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineNo    int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentLineModel) TableName() string {
	return "payment_lines"
}

// ToDomain converts the persistence model to a domain PaymentLine
func (m *PaymentLineModel) ToDomain() settlement.PaymentLine {
	return settlement.PaymentLine{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		InvoiceID: m.InvoiceID,
		Amount:    m.Amount,
	}
}
