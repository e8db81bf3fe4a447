package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrArchiveDisabled is returned when no archive store is configured
var ErrArchiveDisabled = shared.NewPolicyError("ARCHIVE_DISABLED", "Period archiving is not configured")

// TrialBalanceService builds trial balances from the balance cache and archives
// the trial balance of closed periods
type TrialBalanceService struct {
	periods  accounting.AccountingPeriodRepository
	balances accounting.LedgerBalanceRepository
	ledgers  accounting.LedgerAccountRepository
	store    ArchiveStore
	logger   *zap.Logger
	clock    func() time.Time
}

// NewTrialBalanceService creates a new TrialBalanceService over non-transactional
// repositories. A nil store disables ArchivePeriod.
func NewTrialBalanceService(
	periods accounting.AccountingPeriodRepository,
	balances accounting.LedgerBalanceRepository,
	ledgers accounting.LedgerAccountRepository,
	store ArchiveStore,
	logger *zap.Logger,
) *TrialBalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrialBalanceService{
		periods:  periods,
		balances: balances,
		ledgers:  ledgers,
		store:    store,
		logger:   logger,
		clock:    time.Now,
	}
}

// ArchiveEnabled reports whether a store is configured
func (s *TrialBalanceService) ArchiveEnabled() bool {
	return s.store != nil
}

// TrialBalance returns the trial balance of a period, or of all time when periodID is nil
func (s *TrialBalanceService) TrialBalance(ctx context.Context, tenantID uuid.UUID, periodID *uuid.UUID) (*TrialBalanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "trial_balance", "read")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	if periodID != nil {
		if _, err := s.findPeriod(ctx, tenantID, *periodID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	tb, err := s.build(ctx, tenantID, periodID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToTrialBalanceResponse(tb)
	return &resp, nil
}

// ArchivePeriod writes the trial balance of a closed period to the archive store.
// Archiving again overwrites the document with the current totals.
func (s *TrialBalanceService) ArchivePeriod(ctx context.Context, tenantID, periodID, actorID uuid.UUID) (*PeriodArchiveResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "trial_balance", "archive")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrActorID, actorID.String(),
	)

	resp, err := s.archive(ctx, tenantID, periodID, actorID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *TrialBalanceService) archive(ctx context.Context, tenantID, periodID, actorID uuid.UUID) (*PeriodArchiveResponse, error) {
	if s.store == nil {
		return nil, ErrArchiveDisabled
	}

	period, err := s.findPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if period.IsOpen() {
		return nil, accounting.ErrPeriodOpen.WithMessage(
			fmt.Sprintf("Accounting period %s must be closed before it is archived", period.Name))
	}

	tb, err := s.build(ctx, tenantID, &period.ID)
	if err != nil {
		return nil, err
	}

	archivedAt := s.clock()
	doc := PeriodArchiveDocument{
		Period:       ToPeriodResponse(period),
		TrialBalance: ToTrialBalanceResponse(tb),
		ArchivedBy:   actorID,
		ArchivedAt:   archivedAt,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode period archive: %w", err)
	}

	key := PeriodArchiveKey(tenantID, period.ID)
	if err := s.store.Put(ctx, key, data, "application/json"); err != nil {
		return nil, err
	}

	s.logger.Info("Accounting period archived",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", period.Name),
		zap.String("key", key),
		zap.Int("ledgers", len(tb.Lines)),
		zap.Bool("balanced", tb.IsBalanced()),
	)
	if !tb.IsBalanced() {
		s.logger.Warn("Archived trial balance does not balance",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period.Name),
			zap.String("total_debit", tb.TotalDebit.String()),
			zap.String("total_credit", tb.TotalCredit.String()),
		)
	}

	return &PeriodArchiveResponse{
		PeriodID:    period.ID,
		Key:         key,
		Lines:       len(tb.Lines),
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Balanced:    tb.IsBalanced(),
		ArchivedAt:  archivedAt,
	}, nil
}

// PeriodArchiveKey is the storage key of a period's archive document
func PeriodArchiveKey(tenantID, periodID uuid.UUID) string {
	return fmt.Sprintf("trial-balances/%s/%s.json", tenantID, periodID)
}

func (s *TrialBalanceService) findPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*accounting.AccountingPeriod, error) {
	period, err := s.periods.FindByID(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Accounting period %s not found", periodID))
	}
	return period, nil
}

func (s *TrialBalanceService) build(ctx context.Context, tenantID uuid.UUID, periodID *uuid.UUID) (*accounting.TrialBalance, error) {
	rows, err := s.balances.ListByPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.LedgerID
	}
	var accounts []*accounting.LedgerAccount
	if len(ids) > 0 {
		accounts, err = s.ledgers.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, err
		}
	}
	return accounting.NewTrialBalance(tenantID, periodID, rows, accounts, s.clock()), nil
}
