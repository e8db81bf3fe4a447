package ledger

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MasterDataService maintains the chart of accounts, the accounting calendar and
// the invoices handed over for settlement
type MasterDataService struct {
	deps Dependencies
}

// NewMasterDataService creates a new MasterDataService
func NewMasterDataService(deps Dependencies) *MasterDataService {
	return &MasterDataService{deps: deps.withDefaults()}
}

// CreateLedger adds an active account to the chart of accounts
func (s *MasterDataService) CreateLedger(ctx context.Context, tenantID uuid.UUID, req CreateLedgerRequest) (*LedgerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "master_data", "create_ledger")
	defer span.End()

	account, err := accounting.NewLedgerAccount(tenantID, req.Code, req.Name, accounting.AccountNature(req.Nature))
	if err != nil {
		return nil, err
	}
	account.ParentID = req.ParentID

	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if account.ParentID != nil {
			parent, err := repos.LedgerRepo().FindByID(ctx, tenantID, *account.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return shared.ErrNotFound.WithMessage(fmt.Sprintf("Parent ledger %s not found", *account.ParentID))
			}
		}
		return repos.LedgerRepo().Save(ctx, account)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToLedgerResponse(account)
	return &resp, nil
}

// SetLedgerActive activates or deactivates a ledger. Inactive ledgers reject new postings.
func (s *MasterDataService) SetLedgerActive(ctx context.Context, tenantID, ledgerID uuid.UUID, active bool) (*LedgerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "master_data", "set_ledger_active")
	defer span.End()

	var account *accounting.LedgerAccount
	err := s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.LedgerRepo().FindByID(ctx, tenantID, ledgerID)
		if err != nil {
			return err
		}
		if account == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Ledger %s not found", ledgerID))
		}
		if active {
			account.Activate()
		} else {
			account.Deactivate()
		}
		return repos.LedgerRepo().Save(ctx, account)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToLedgerResponse(account)
	return &resp, nil
}

// CreatePeriod opens a new accounting period
func (s *MasterDataService) CreatePeriod(ctx context.Context, tenantID uuid.UUID, req CreatePeriodRequest) (*PeriodResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "master_data", "create_period")
	defer span.End()

	period, err := accounting.NewAccountingPeriod(tenantID, req.Name, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.PeriodRepo().Save(ctx, period)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToPeriodResponse(period)
	return &resp, nil
}

// ClosePeriod locks a period against postings
func (s *MasterDataService) ClosePeriod(ctx context.Context, tenantID, periodID, actorID uuid.UUID) (*PeriodResponse, error) {
	return s.changePeriod(ctx, tenantID, periodID, "close_period", func(p *accounting.AccountingPeriod) error {
		return p.Close(actorID)
	})
}

// ReopenPeriod unlocks a closed period
func (s *MasterDataService) ReopenPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*PeriodResponse, error) {
	return s.changePeriod(ctx, tenantID, periodID, "reopen_period", func(p *accounting.AccountingPeriod) error {
		return p.Reopen()
	})
}

func (s *MasterDataService) changePeriod(ctx context.Context, tenantID, periodID uuid.UUID, operation string,
	change func(*accounting.AccountingPeriod) error) (*PeriodResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "master_data", operation)
	defer span.End()

	var period *accounting.AccountingPeriod
	err := s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		period, err = repos.PeriodRepo().FindByID(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if period == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Accounting period %s not found", periodID))
		}
		if err := change(period); err != nil {
			return err
		}
		return repos.PeriodRepo().Save(ctx, period)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.deps.Logger.Info("Accounting period changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", period.Name),
		zap.String("status", string(period.Status)))
	resp := ToPeriodResponse(period)
	return &resp, nil
}

// RegisterInvoice records a posted invoice so receipts can be allocated against it
func (s *MasterDataService) RegisterInvoice(ctx context.Context, tenantID uuid.UUID, req RegisterInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "master_data", "register_invoice")
	defer span.End()

	currency, err := s.deps.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	invoice, err := settlement.NewInvoice(tenantID, req.Number, req.PartyLedgerID, currency, req.GrandTotal, req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	if err := invoice.Post(); err != nil {
		return nil, err
	}

	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		party, err := repos.LedgerRepo().FindByID(ctx, tenantID, req.PartyLedgerID)
		if err != nil {
			return err
		}
		if party == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Ledger %s not found", req.PartyLedgerID))
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// GetInvoice returns the outstanding view of an invoice
func (s *MasterDataService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "master_data", "get_invoice")
	defer span.End()

	var invoice *settlement.Invoice
	err := s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByID(ctx, tenantID, invoiceID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if invoice == nil {
		return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Invoice %s not found", invoiceID))
	}
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}
