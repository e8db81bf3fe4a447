package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	march15 = testutil.Date("2026-03-15")
	actor   = testutil.TestUserID()
)

type fixture struct {
	stack  *testutil.LedgerStack
	tenant uuid.UUID
	cash   uuid.UUID
	sales  uuid.UUID
}

func newFixture(t *testing.T, opts ...testutil.StackOption) *fixture {
	t.Helper()
	stack := testutil.NewLedgerStack(t, opts...)
	tenant := testutil.TestTenantID()
	return &fixture{
		stack:  stack,
		tenant: tenant,
		cash:   stack.Ledger(t, tenant, "1000", "ASSET"),
		sales:  stack.Ledger(t, tenant, "4000", "INCOME"),
	}
}

func (f *fixture) post(voucherID uuid.UUID, key string) (*appledger.VoucherResponse, error) {
	return f.stack.Posting.Post(context.Background(), f.tenant, appledger.PostVoucherRequest{
		VoucherID:      voucherID,
		ActorID:        actor,
		IdempotencyKey: key,
	})
}

func (f *fixture) balance(t *testing.T, ledgerID uuid.UUID, periodID *uuid.UUID) *appledger.BalanceResponse {
	t.Helper()
	b, err := f.stack.Balances.ReadBalance(context.Background(), f.tenant, ledgerID, periodID)
	require.NoError(t, err)
	return b
}

func (f *fixture) auditActions(t *testing.T, entityID uuid.UUID) []string {
	t.Helper()
	var rows []models.AuditLogModel
	require.NoError(t, f.stack.DB.DB.Where("entity_id = ?", entityID).Order("created_at ASC").Find(&rows).Error)
	actions := make([]string, 0, len(rows))
	for _, r := range rows {
		actions = append(actions, r.Action)
	}
	return actions
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPostingService_PostsBalancedVoucher(t *testing.T) {
	f := newFixture(t)
	draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "250.00", march15)
	assert.Equal(t, "DRAFT", draft.Status)
	assert.Equal(t, "JV-000001", draft.Number)

	posted, err := f.post(draft.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "POSTED", posted.Status)
	assert.Equal(t, draft.Number, posted.Number)
	assert.False(t, posted.Replayed)
	require.NotNil(t, posted.PostedBy)
	assert.Equal(t, actor, *posted.PostedBy)
	assert.True(t, dec("250").Equal(posted.TotalDebit))
	assert.True(t, dec("250").Equal(posted.TotalCredit))

	cash := f.balance(t, f.cash, nil)
	assert.True(t, dec("250").Equal(cash.DebitTotal))
	assert.True(t, decimal.Zero.Equal(cash.CreditTotal))
	require.NotNil(t, cash.LastVoucherID)
	assert.Equal(t, draft.ID, *cash.LastVoucherID)
	assert.True(t, dec("250").Equal(f.balance(t, f.sales, nil).CreditTotal))

	assert.Equal(t, []string{"VOUCHER_CREATED", "VOUCHER_POSTED"}, f.auditActions(t, draft.ID))
	assert.Equal(t, []string{accounting.EventTypeVoucherPosted}, f.stack.OutboxEventTypes(t))
}

func TestPostingService_RejectsRepeatedPost(t *testing.T) {
	f := newFixture(t)
	draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "10", march15)

	_, err := f.post(draft.ID, "")
	require.NoError(t, err)

	_, err = f.post(draft.ID, "")
	assert.ErrorIs(t, err, accounting.ErrAlreadyPosted)

	cash := f.balance(t, f.cash, nil)
	assert.True(t, dec("10").Equal(cash.DebitTotal), "second attempt must not touch balances")
}

func TestPostingService_UnbalancedVoucherHasNoEffects(t *testing.T) {
	f := newFixture(t)
	req := testutil.JournalRequest(f.cash, f.sales, "100", march15)
	req.Lines[1].Amount = dec("99.98")
	draft, err := f.stack.Vouchers.CreateDraft(context.Background(), f.tenant, req)
	require.NoError(t, err)

	_, err = f.post(draft.ID, "key-unbalanced")
	require.ErrorIs(t, err, accounting.ErrUnbalancedEntry)

	stored, err := f.stack.Vouchers.Get(context.Background(), f.tenant, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", stored.Status)
	assert.Nil(t, f.balance(t, f.cash, nil).LastVoucherID)
	assert.Empty(t, f.stack.OutboxEventTypes(t))
	assert.Equal(t, []string{"VOUCHER_CREATED"}, f.auditActions(t, draft.ID))

	// the key was not consumed by the failed attempt
	var keys int64
	require.NoError(t, f.stack.DB.DB.Model(&models.IdempotencyKeyModel{}).Count(&keys).Error)
	assert.Zero(t, keys)
}

func TestPostingService_ToleratesRoundingWithinMinorUnit(t *testing.T) {
	f := newFixture(t)
	req := testutil.JournalRequest(f.cash, f.sales, "100", march15)
	req.Lines[1].Amount = dec("99.995")
	draft, err := f.stack.Vouchers.CreateDraft(context.Background(), f.tenant, req)
	require.NoError(t, err)

	_, err = f.post(draft.ID, "")
	assert.NoError(t, err)
}

func TestPostingService_ResourceGuards(t *testing.T) {
	t.Run("inactive ledger", func(t *testing.T) {
		f := newFixture(t)
		draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "10", march15)
		_, err := f.stack.MasterData.SetLedgerActive(context.Background(), f.tenant, f.sales, false)
		require.NoError(t, err)

		_, err = f.post(draft.ID, "")
		require.ErrorIs(t, err, accounting.ErrInactiveResource)
		assert.Nil(t, f.balance(t, f.cash, nil).LastVoucherID)

		_, err = f.stack.MasterData.SetLedgerActive(context.Background(), f.tenant, f.sales, true)
		require.NoError(t, err)
		_, err = f.post(draft.ID, "")
		assert.NoError(t, err)
	})

	t.Run("unknown ledger", func(t *testing.T) {
		f := newFixture(t)
		draft := f.stack.Journal(t, f.tenant, f.cash, uuid.New(), "10", march15)

		_, err := f.post(draft.ID, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("ledger of another tenant", func(t *testing.T) {
		f := newFixture(t)
		other := f.stack.Ledger(t, uuid.New(), "4000", "INCOME")
		draft := f.stack.Journal(t, f.tenant, f.cash, other, "10", march15)

		_, err := f.post(draft.ID, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("voucher of another tenant", func(t *testing.T) {
		f := newFixture(t)
		draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "10", march15)

		_, err := f.stack.Posting.Post(context.Background(), uuid.New(), appledger.PostVoucherRequest{
			VoucherID: draft.ID,
			ActorID:   actor,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPostingService_ClosedPeriod(t *testing.T) {
	supervisor := testutil.NewTestUUID("supervisor")

	setup := func(t *testing.T) (*fixture, uuid.UUID, *appledger.VoucherResponse) {
		f := newFixture(t, testutil.WithOverrideActors(supervisor))
		period := f.stack.Period(t, f.tenant, "2026-03", testutil.Date("2026-03-01"), testutil.Date("2026-03-31"))
		draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "75", march15)
		require.NotNil(t, draft.PeriodID, "draft resolves its period from the date")
		assert.Equal(t, period, *draft.PeriodID)

		_, err := f.stack.MasterData.ClosePeriod(context.Background(), f.tenant, period, supervisor)
		require.NoError(t, err)
		return f, period, draft
	}

	t.Run("rejected without override", func(t *testing.T) {
		f, period, draft := setup(t)

		_, err := f.post(draft.ID, "")
		require.ErrorIs(t, err, accounting.ErrPeriodClosed)
		assert.Nil(t, f.balance(t, f.cash, &period).LastVoucherID)
	})

	t.Run("override denied for unauthorized actor", func(t *testing.T) {
		f, _, draft := setup(t)

		_, err := f.stack.Posting.Post(context.Background(), f.tenant, appledger.PostVoucherRequest{
			VoucherID:      draft.ID,
			ActorID:        actor,
			OverridePeriod: true,
		})
		assert.ErrorIs(t, err, accounting.ErrPeriodClosed)
	})

	t.Run("override allowed and audited", func(t *testing.T) {
		f, period, draft := setup(t)

		posted, err := f.stack.Posting.Post(context.Background(), f.tenant, appledger.PostVoucherRequest{
			VoucherID:      draft.ID,
			ActorID:        supervisor,
			OverridePeriod: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "POSTED", posted.Status)

		assert.True(t, dec("75").Equal(f.balance(t, f.cash, &period).DebitTotal))
		assert.True(t, dec("75").Equal(f.balance(t, f.cash, nil).DebitTotal))
		assert.Contains(t, f.auditActions(t, draft.ID), "PERIOD_OVERRIDE")
	})

	t.Run("reopened period accepts postings", func(t *testing.T) {
		f, period, draft := setup(t)
		_, err := f.stack.MasterData.ReopenPeriod(context.Background(), f.tenant, period)
		require.NoError(t, err)

		_, err = f.post(draft.ID, "")
		assert.NoError(t, err)
	})
}

func TestPostingService_PeriodAndAllTimeBalances(t *testing.T) {
	f := newFixture(t)
	march := f.stack.Period(t, f.tenant, "2026-03", testutil.Date("2026-03-01"), testutil.Date("2026-03-31"))
	april := f.stack.Period(t, f.tenant, "2026-04", testutil.Date("2026-04-01"), testutil.Date("2026-04-30"))

	for _, d := range []string{"2026-03-10", "2026-03-20", "2026-04-05"} {
		draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "100", testutil.Date(d))
		_, err := f.post(draft.ID, "")
		require.NoError(t, err)
	}

	assert.True(t, dec("200").Equal(f.balance(t, f.cash, &march).DebitTotal))
	assert.True(t, dec("100").Equal(f.balance(t, f.cash, &april).DebitTotal))
	all := f.balance(t, f.cash, nil)
	assert.True(t, dec("300").Equal(all.DebitTotal))
	assert.True(t, dec("300").Equal(all.Net))
	assert.True(t, dec("-300").Equal(f.balance(t, f.sales, nil).Net))
}

func TestVoucherService_ConcurrentDraftsGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	const n = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool, n)
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.stack.Vouchers.CreateDraft(context.Background(), f.tenant,
				testutil.JournalRequest(f.cash, f.sales, "1", march15))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[resp.Number] = true
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, n)
	for i := 1; i <= n; i++ {
		assert.True(t, numbers[fmt.Sprintf("JV-%06d", i)], "missing JV-%06d", i)
	}
}

func TestVoucherService_SequencesAreTenantAndTypeScoped(t *testing.T) {
	f := newFixture(t)
	otherTenant := uuid.New()
	otherCash := f.stack.Ledger(t, otherTenant, "1000", "ASSET")
	otherSales := f.stack.Ledger(t, otherTenant, "4000", "INCOME")

	first := f.stack.Journal(t, f.tenant, f.cash, f.sales, "1", march15)
	other := f.stack.Journal(t, otherTenant, otherCash, otherSales, "1", march15)

	req := testutil.JournalRequest(f.cash, f.sales, "1", march15)
	req.VoucherType = "CONTRA"
	contra, err := f.stack.Vouchers.CreateDraft(context.Background(), f.tenant, req)
	require.NoError(t, err)

	assert.Equal(t, "JV-000001", first.Number)
	assert.Equal(t, "JV-000001", other.Number)
	assert.NotEqual(t, first.Number[:3], contra.Number[:3])
}

func TestVoucherService_Cancel(t *testing.T) {
	f := newFixture(t)
	draft := f.stack.Journal(t, f.tenant, f.cash, f.sales, "10", march15)

	cancelled, err := f.stack.Vouchers.Cancel(context.Background(), f.tenant, appledger.CancelVoucherRequest{
		VoucherID: draft.ID,
		ActorID:   actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Contains(t, f.stack.OutboxEventTypes(t), accounting.EventTypeVoucherCancelled)

	_, err = f.post(draft.ID, "")
	assert.Error(t, err)

	next := f.stack.Journal(t, f.tenant, f.cash, f.sales, "10", march15)
	assert.Equal(t, "JV-000002", next.Number, "cancelled numbers are not reused")
}

func TestPostingService_LineValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*appledger.CreateVoucherRequest)
		want   error
	}{
		{"unknown entry kind", func(r *appledger.CreateVoucherRequest) { r.Lines[0].EntryKind = "XX" }, accounting.ErrInvalidEntryKind},
		{"negative amount", func(r *appledger.CreateVoucherRequest) { r.Lines[0].Amount = dec("-1") }, accounting.ErrInvalidAmount},
		{"zero amount", func(r *appledger.CreateVoucherRequest) { r.Lines[1].Amount = decimal.Zero }, accounting.ErrInvalidAmount},
		{"single leg", func(r *appledger.CreateVoucherRequest) { r.Lines[1].EntryKind = "DR" }, accounting.ErrMissingLeg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := testutil.JournalRequest(f.cash, f.sales, "10", march15)
			tt.mutate(&req)
			draft, err := f.stack.Vouchers.CreateDraft(context.Background(), f.tenant, req)
			require.NoError(t, err, "drafts are validated when posted")

			_, err = f.post(draft.ID, "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVoucherService_CreateDraftValidation(t *testing.T) {
	f := newFixture(t)
	period := f.stack.Period(t, f.tenant, "2026-03", testutil.Date("2026-03-01"), testutil.Date("2026-03-31"))

	tests := []struct {
		name   string
		mutate func(*appledger.CreateVoucherRequest)
		want   error
	}{
		{"malformed currency", func(r *appledger.CreateVoucherRequest) { r.Currency = "U$D" }, shared.ErrInvalidInput},
		{"date outside explicit period", func(r *appledger.CreateVoucherRequest) {
			r.PeriodID = &period
			r.VoucherDate = testutil.Date("2026-04-02")
		}, shared.ErrInvalidInput},
		{"unknown period", func(r *appledger.CreateVoucherRequest) {
			id := uuid.New()
			r.PeriodID = &id
		}, shared.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.JournalRequest(f.cash, f.sales, "10", march15)
			tt.mutate(&req)
			_, err := f.stack.Vouchers.CreateDraft(context.Background(), f.tenant, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
