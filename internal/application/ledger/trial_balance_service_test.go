package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) error {
	return errors.New("bucket unreachable")
}

func (f *fixture) postJournal(t *testing.T, debit, credit uuid.UUID, amount, date string) {
	t.Helper()
	draft := f.stack.Journal(t, f.tenant, debit, credit, amount, testutil.Date(date))
	_, err := f.post(draft.ID, "")
	require.NoError(t, err)
}

func TestTrialBalanceService_TrialBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := f.stack.Period(t, f.tenant, "2026-03", testutil.Date("2026-03-01"), testutil.Date("2026-03-31"))
	f.stack.Period(t, f.tenant, "2026-04", testutil.Date("2026-04-01"), testutil.Date("2026-04-30"))
	rent := f.stack.Ledger(t, f.tenant, "6000", "EXPENSE")

	f.postJournal(t, f.cash, f.sales, "500", "2026-03-05")
	f.postJournal(t, rent, f.cash, "120.50", "2026-03-25")
	f.postJournal(t, f.cash, f.sales, "80", "2026-04-02")

	tb, err := f.stack.TrialBalances.TrialBalance(ctx, f.tenant, &march)
	require.NoError(t, err)
	require.Len(t, tb.Lines, 3)
	assert.Equal(t, []string{"1000", "4000", "6000"},
		[]string{tb.Lines[0].Code, tb.Lines[1].Code, tb.Lines[2].Code})
	assert.True(t, dec("379.50").Equal(tb.Lines[0].Net))
	assert.True(t, dec("620.50").Equal(tb.TotalDebit))
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit))
	assert.True(t, tb.Balanced)

	all, err := f.stack.TrialBalances.TrialBalance(ctx, f.tenant, nil)
	require.NoError(t, err)
	assert.Nil(t, all.PeriodID)
	assert.True(t, dec("700.50").Equal(all.TotalDebit))
	assert.True(t, all.Balanced)
}

func TestTrialBalanceService_ReversalNetsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "45", march15)
	_, err := f.post(draft.ID, "")
	require.NoError(t, err)
	_, err = f.stack.Reversals.Reverse(ctx, f.tenant, appledger.ReverseVoucherRequest{
		VoucherID: draft.ID,
		ActorID:   actor,
		Reason:    "duplicate entry",
	})
	require.NoError(t, err)

	tb, err := f.stack.TrialBalances.TrialBalance(ctx, f.tenant, nil)
	require.NoError(t, err)
	for _, l := range tb.Lines {
		assert.True(t, l.Net.IsZero(), "ledger %s nets to zero", l.Code)
	}
	assert.True(t, tb.Balanced)
}

func TestTrialBalanceService_UnknownPeriod(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()

	_, err := f.stack.TrialBalances.TrialBalance(context.Background(), f.tenant, &missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTrialBalanceService_ArchivePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := f.stack.Period(t, f.tenant, "2026-03", testutil.Date("2026-03-01"), testutil.Date("2026-03-31"))
	f.postJournal(t, f.cash, f.sales, "250", "2026-03-10")

	t.Run("open periods are not archived", func(t *testing.T) {
		_, err := f.stack.TrialBalances.ArchivePeriod(ctx, f.tenant, march, actor)
		assert.ErrorIs(t, err, accounting.ErrPeriodOpen)
		assert.Empty(t, f.stack.Archive.Keys())
	})

	_, err := f.stack.MasterData.ClosePeriod(ctx, f.tenant, march, actor)
	require.NoError(t, err)

	t.Run("closed period is written to the store", func(t *testing.T) {
		resp, err := f.stack.TrialBalances.ArchivePeriod(ctx, f.tenant, march, actor)
		require.NoError(t, err)
		assert.Equal(t, appledger.PeriodArchiveKey(f.tenant, march), resp.Key)
		assert.Equal(t, 2, resp.Lines)
		assert.True(t, resp.Balanced)
		assert.True(t, dec("250").Equal(resp.TotalDebit))

		data, err := f.stack.Archive.Get(ctx, resp.Key)
		require.NoError(t, err)
		assert.Equal(t, "application/json", f.stack.Archive.ContentType(resp.Key))

		var doc appledger.PeriodArchiveDocument
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "2026-03", doc.Period.Name)
		assert.Equal(t, string(accounting.PeriodStatusClosed), doc.Period.Status)
		assert.Equal(t, actor, doc.ArchivedBy)
		require.Len(t, doc.TrialBalance.Lines, 2)
		assert.True(t, dec("250").Equal(doc.TrialBalance.TotalCredit))
	})

	t.Run("other tenants cannot archive the period", func(t *testing.T) {
		_, err := f.stack.TrialBalances.ArchivePeriod(ctx, uuid.New(), march, actor)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTrialBalanceService_ArchiveStoreErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := f.stack.Period(t, f.tenant, "2026-03", testutil.Date("2026-03-01"), testutil.Date("2026-03-31"))
	_, err := f.stack.MasterData.ClosePeriod(ctx, f.tenant, march, actor)
	require.NoError(t, err)

	newService := func(store appledger.ArchiveStore) *appledger.TrialBalanceService {
		db := f.stack.DB.DB
		return appledger.NewTrialBalanceService(
			persistence.NewGormAccountingPeriodRepository(db),
			persistence.NewGormLedgerBalanceRepository(db),
			persistence.NewGormLedgerAccountRepository(db),
			store,
			nil,
		)
	}

	disabled := newService(nil)
	assert.False(t, disabled.ArchiveEnabled())
	_, err = disabled.ArchivePeriod(ctx, f.tenant, march, actor)
	assert.ErrorIs(t, err, appledger.ErrArchiveDisabled)

	_, err = newService(failingStore{}).ArchivePeriod(ctx, f.tenant, march, actor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unreachable")
}
