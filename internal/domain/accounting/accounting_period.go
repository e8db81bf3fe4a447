package accounting

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// PeriodStatus represents whether a period accepts postings
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// AccountingPeriod is a bounded date range that is either open or locked for posting
type AccountingPeriod struct {
	shared.TenantAggregateRoot
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	ClosedAt  *time.Time
	ClosedBy  *uuid.UUID
}

// NewAccountingPeriod creates an open period covering [start, end]
func NewAccountingPeriod(tenantID uuid.UUID, name string, start, end time.Time) (*AccountingPeriod, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period name cannot be empty")
	}
	if start.IsZero() || end.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start and end dates are required")
	}
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end cannot be before its start")
	}
	return &AccountingPeriod{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		StartDate:           start,
		EndDate:             end,
		Status:              PeriodStatusOpen,
	}, nil
}

// IsOpen returns true if the period accepts postings
func (p *AccountingPeriod) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// Contains reports whether the date falls inside the period, by calendar day
func (p *AccountingPeriod) Contains(date time.Time) bool {
	day := truncateDay(date)
	return !day.Before(truncateDay(p.StartDate)) && !day.After(truncateDay(p.EndDate))
}

// Close locks the period against further postings
func (p *AccountingPeriod) Close(actor uuid.UUID) error {
	if !p.IsOpen() {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Period %s is already closed", p.Name))
	}
	now := time.Now()
	p.Status = PeriodStatusClosed
	p.ClosedAt = &now
	p.ClosedBy = &actor
	p.IncrementVersion()
	return nil
}

// Reopen unlocks a closed period
func (p *AccountingPeriod) Reopen() error {
	if p.IsOpen() {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Period %s is already open", p.Name))
	}
	p.Status = PeriodStatusOpen
	p.ClosedAt = nil
	p.ClosedBy = nil
	p.IncrementVersion()
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
