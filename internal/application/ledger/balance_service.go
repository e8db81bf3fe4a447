package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceService answers lock-free reads from the balance cache
type BalanceService struct {
	balances accounting.LedgerBalanceRepository
	invoices settlement.InvoiceRepository
}

// NewBalanceService creates a new BalanceService over non-transactional repositories
func NewBalanceService(balances accounting.LedgerBalanceRepository, invoices settlement.InvoiceRepository) *BalanceService {
	return &BalanceService{balances: balances, invoices: invoices}
}

// ReadBalance returns the cached totals of a ledger for a period, or for all
// time when periodID is nil. A ledger nothing was posted to reads as zero.
func (s *BalanceService) ReadBalance(ctx context.Context, tenantID, ledgerID uuid.UUID, periodID *uuid.UUID) (*BalanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "read")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrLedgerID, ledgerID.String(),
	)

	b, err := s.balances.Get(ctx, tenantID, ledgerID, periodID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if b == nil {
		return &BalanceResponse{
			TenantID:    tenantID,
			LedgerID:    ledgerID,
			PeriodID:    periodID,
			DebitTotal:  decimal.Zero,
			CreditTotal: decimal.Zero,
			Net:         decimal.Zero,
		}, nil
	}
	updatedAt := b.UpdatedAt
	return &BalanceResponse{
		TenantID:      b.TenantID,
		LedgerID:      b.LedgerID,
		PeriodID:      b.PeriodID,
		DebitTotal:    b.DebitTotal,
		CreditTotal:   b.CreditTotal,
		Net:           b.Net(),
		LastVoucherID: b.LastVoucherID,
		UpdatedAt:     &updatedAt,
	}, nil
}

// CreditExposure sums the outstanding amount of a counterparty's open invoices
func (s *BalanceService) CreditExposure(ctx context.Context, tenantID, partyLedgerID uuid.UUID) (*CreditExposureResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "credit_exposure")
	defer span.End()

	open, err := s.invoices.FindOpenByParty(ctx, tenantID, partyLedgerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &CreditExposureResponse{
		TenantID:      tenantID,
		PartyLedgerID: partyLedgerID,
		Exposure:      settlement.CreditExposure(open),
		OpenInvoices:  len(open),
	}, nil
}
