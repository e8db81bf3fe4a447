package accounting

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createClosedPeriod(t *testing.T, tenantID uuid.UUID) *AccountingPeriod {
	p, err := NewAccountingPeriod(tenantID, "2026-09",
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, p.Close(uuid.New()))
	return p
}

func TestGuardDraft(t *testing.T) {
	v := createBalancedVoucher(t)
	assert.NoError(t, GuardDraft(v))

	require.NoError(t, v.Post(uuid.New(), time.Now()))
	err := GuardDraft(v)
	assert.True(t, errors.Is(err, ErrAlreadyPosted))

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CategoryState, domainErr.Category)
	assert.Contains(t, domainErr.Message, "JV-000001")
}

func TestGuardPeriodOpen(t *testing.T) {
	v := createBalancedVoucher(t)
	closed := createClosedPeriod(t, v.TenantID)

	t.Run("closed without override", func(t *testing.T) {
		err := GuardPeriodOpen(v, closed, false)
		assert.True(t, errors.Is(err, ErrPeriodClosed))
	})

	t.Run("closed with override", func(t *testing.T) {
		assert.NoError(t, GuardPeriodOpen(v, closed, true))
	})

	t.Run("open period", func(t *testing.T) {
		require.NoError(t, closed.Reopen())
		assert.NoError(t, GuardPeriodOpen(v, closed, false))
	})

	t.Run("voucher without period", func(t *testing.T) {
		v.PeriodID = nil
		assert.NoError(t, GuardPeriodOpen(v, createClosedPeriod(t, v.TenantID), false))
	})
}

func TestGuardNotReversed(t *testing.T) {
	v := createBalancedVoucher(t)
	require.NoError(t, v.Post(uuid.New(), time.Now()))
	assert.NoError(t, GuardNotReversed(v))

	require.NoError(t, v.MarkReversed(uuid.New(), uuid.New(), "", time.Now()))
	assert.True(t, errors.Is(GuardNotReversed(v), ErrAlreadyReversed))
}

func TestGuardPostedOnly(t *testing.T) {
	tests := []struct {
		status VoucherStatus
		ok     bool
	}{
		{VoucherStatusDraft, false},
		{VoucherStatusPosted, true},
		{VoucherStatusReversed, false},
		{VoucherStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			v := createTestVoucher(t)
			v.Status = tt.status
			err := GuardPostedOnly(v)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrNotPosted))
			}
		})
	}
}

func TestGuardResourceActive(t *testing.T) {
	account, err := NewLedgerAccount(uuid.New(), "1000", "Bank", NatureAsset)
	require.NoError(t, err)
	assert.NoError(t, GuardResourceActive(account))

	account.Deactivate()
	err = GuardResourceActive(account)
	assert.True(t, errors.Is(err, ErrInactiveResource))

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CategoryPolicy, domainErr.Category)
}
