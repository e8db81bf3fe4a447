package testutil

import (
	"context"
	"testing"
	"time"

	appevent "github.com/erp/ledger/internal/application/event"
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// LedgerStack is the ledger services wired over one in-memory database, with
// events going to the outbox in the posting transaction.
type LedgerStack struct {
	DB         *persistence.Database
	Scope      *persistence.GormTransactionScope
	Outbox     *event.GormOutboxRepository
	Serializer *event.EventSerializer
	Deps       appledger.Dependencies

	Vouchers   *appledger.VoucherService
	Posting    *appledger.PostingService
	Reversals  *appledger.ReversalService
	Payments   *appledger.PaymentAllocationService
	MasterData *appledger.MasterDataService
	Balances   *appledger.BalanceService
	OutboxSvc  *appevent.OutboxService

	// Archive receives the period archives written by TrialBalances
	Archive       *storage.MemoryObjectStorage
	TrialBalances *appledger.TrialBalanceService
}

// StackOption adjusts the service dependencies before the stack is built.
type StackOption func(*appledger.Dependencies)

// WithOverrideActors lets the given actors post into closed periods.
func WithOverrideActors(ids ...uuid.UUID) StackOption {
	return func(d *appledger.Dependencies) {
		d.Authorizer = appledger.NewStaticOverrideAuthorizer(ids)
	}
}

// WithClock fixes the time the services stamp on postings and reversals.
func WithClock(now time.Time) StackOption {
	return func(d *appledger.Dependencies) {
		d.Clock = func() time.Time { return now }
	}
}

// WithIdempotencyCache puts a cache in front of the idempotency table.
func WithIdempotencyCache(cache shared.IdempotencyCache) StackOption {
	return func(d *appledger.Dependencies) {
		d.Guard = appledger.NewIdempotencyGuard(cache, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}, d.Logger)
	}
}

// WithLogger sets the logger shared by the services.
func WithLogger(logger *zap.Logger) StackOption {
	return func(d *appledger.Dependencies) {
		d.Logger = logger
	}
}

// NewLedgerStack builds the ledger services over a fresh sqlite database.
func NewLedgerStack(t *testing.T, opts ...StackOption) *LedgerStack {
	t.Helper()
	return NewLedgerStackOn(t, NewSQLiteDB(t), opts...)
}

// NewLedgerStackOn builds the ledger services over an existing database.
func NewLedgerStackOn(t *testing.T, db *persistence.Database, opts ...StackOption) *LedgerStack {
	t.Helper()

	serializer := event.NewLedgerEventSerializer()
	scope := persistence.NewGormTransactionScope(db.DB, event.NewOutboxPublisher(serializer))
	deps := appledger.Dependencies{Scope: scope, Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&deps)
	}

	outbox := event.NewGormOutboxRepository(db.DB)
	archive := storage.NewMemoryObjectStorage()
	return &LedgerStack{
		DB:         db,
		Scope:      scope,
		Outbox:     outbox,
		Serializer: serializer,
		Deps:       deps,
		Vouchers:   appledger.NewVoucherService(deps),
		Posting:    appledger.NewPostingService(deps),
		Reversals:  appledger.NewReversalService(deps),
		Payments:   appledger.NewPaymentAllocationService(deps),
		MasterData: appledger.NewMasterDataService(deps),
		Balances: appledger.NewBalanceService(
			persistence.NewGormLedgerBalanceRepository(db.DB),
			persistence.NewGormInvoiceRepository(db.DB),
		),
		OutboxSvc: appevent.NewOutboxService(outbox, deps.Logger),
		Archive:   archive,
		TrialBalances: appledger.NewTrialBalanceService(
			persistence.NewGormAccountingPeriodRepository(db.DB),
			persistence.NewGormLedgerBalanceRepository(db.DB),
			persistence.NewGormLedgerAccountRepository(db.DB),
			archive,
			deps.Logger,
		),
	}
}

// Ledger creates an active ledger account and returns its id.
func (s *LedgerStack) Ledger(t *testing.T, tenantID uuid.UUID, code, nature string) uuid.UUID {
	t.Helper()
	resp, err := s.MasterData.CreateLedger(context.Background(), tenantID, appledger.CreateLedgerRequest{
		Code:   code,
		Name:   code,
		Nature: nature,
	})
	require.NoError(t, err)
	return resp.ID
}

// Period opens an accounting period covering [start, end] and returns its id.
func (s *LedgerStack) Period(t *testing.T, tenantID uuid.UUID, name string, start, end time.Time) uuid.UUID {
	t.Helper()
	resp, err := s.MasterData.CreatePeriod(context.Background(), tenantID, appledger.CreatePeriodRequest{
		Name:      name,
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	return resp.ID
}

// Invoice registers a posted invoice against a party ledger and returns its id.
func (s *LedgerStack) Invoice(t *testing.T, tenantID uuid.UUID, number string, partyID uuid.UUID, total string, date time.Time) uuid.UUID {
	t.Helper()
	resp, err := s.MasterData.RegisterInvoice(context.Background(), tenantID, appledger.RegisterInvoiceRequest{
		Number:        number,
		PartyLedgerID: partyID,
		GrandTotal:    decimal.RequireFromString(total),
		InvoiceDate:   date,
	})
	require.NoError(t, err)
	return resp.ID
}

// Journal creates a two-line JOURNAL draft debiting one ledger and crediting another.
func (s *LedgerStack) Journal(t *testing.T, tenantID, debitID, creditID uuid.UUID, amount string, date time.Time) *appledger.VoucherResponse {
	t.Helper()
	resp, err := s.Vouchers.CreateDraft(context.Background(), tenantID, JournalRequest(debitID, creditID, amount, date))
	require.NoError(t, err)
	return resp
}

// JournalRequest builds a balanced two-line JOURNAL draft request.
func JournalRequest(debitID, creditID uuid.UUID, amount string, date time.Time) appledger.CreateVoucherRequest {
	value := decimal.RequireFromString(amount)
	return appledger.CreateVoucherRequest{
		VoucherType: "JOURNAL",
		VoucherDate: date,
		Narration:   "test journal",
		Lines: []appledger.VoucherLineRequest{
			{LedgerID: debitID, EntryKind: "DR", Amount: value},
			{LedgerID: creditID, EntryKind: "CR", Amount: value},
		},
	}
}

// OutboxEventTypes returns the event types waiting in the outbox, oldest first.
func (s *LedgerStack) OutboxEventTypes(t *testing.T) []string {
	t.Helper()
	entries, err := s.Outbox.FindPending(context.Background(), 1000)
	require.NoError(t, err)
	types := make([]string, 0, len(entries))
	for _, e := range entries {
		types = append(types, e.EventType)
	}
	return types
}
