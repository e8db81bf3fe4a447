package accounting

import (
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDoubleEntry(t *testing.T) {
	tolerance := valueobject.MinorUnit(2)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name    string
		lines   []VoucherLine
		wantErr error
	}{
		{
			name:  "balanced two lines",
			lines: []VoucherLine{DebitLine(a, dec("100")), CreditLine(b, dec("100"))},
		},
		{
			name:  "balanced split credit",
			lines: []VoucherLine{DebitLine(a, dec("100")), CreditLine(b, dec("60")), CreditLine(c, dec("40"))},
		},
		{
			name:  "within one minor unit",
			lines: []VoucherLine{DebitLine(a, dec("100.00")), CreditLine(b, dec("99.99"))},
		},
		{
			name:    "beyond tolerance",
			lines:   []VoucherLine{DebitLine(a, dec("100.00")), CreditLine(b, dec("99.98"))},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name:    "unbalanced 100 vs 90",
			lines:   []VoucherLine{DebitLine(a, dec("100")), CreditLine(b, dec("90"))},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name:    "no credit leg",
			lines:   []VoucherLine{DebitLine(a, dec("100")), DebitLine(b, dec("100"))},
			wantErr: ErrMissingLeg,
		},
		{
			name:    "empty",
			lines:   nil,
			wantErr: ErrMissingLeg,
		},
		{
			name:    "zero amount",
			lines:   []VoucherLine{DebitLine(a, dec("0")), CreditLine(b, dec("0"))},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			lines:   []VoucherLine{DebitLine(a, dec("-5")), CreditLine(b, dec("-5"))},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "invalid entry kind wins over amount",
			lines:   []VoucherLine{DebitLine(a, dec("-5")), NewVoucherLine(b, EntryKind("XX"), dec("5"))},
			wantErr: ErrInvalidEntryKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateDoubleEntry(tt.lines, tolerance)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateDoubleEntry_Totals(t *testing.T) {
	lines := []VoucherLine{
		DebitLine(uuid.New(), dec("70.25")),
		DebitLine(uuid.New(), dec("29.75")),
		CreditLine(uuid.New(), dec("100")),
	}
	totals, err := ValidateDoubleEntry(lines, valueobject.MinorUnit(2))
	require.NoError(t, err)
	assert.True(t, totals.Debit.Equal(dec("100")))
	assert.True(t, totals.Credit.Equal(dec("100")))
	assert.Equal(t, 2, totals.DebitLines)
	assert.Equal(t, 1, totals.CreditLines)
	assert.True(t, totals.Difference().IsZero())
}

func TestValidateDoubleEntry_ZeroDecimalCurrency(t *testing.T) {
	lines := []VoucherLine{DebitLine(uuid.New(), dec("1000")), CreditLine(uuid.New(), dec("999"))}
	_, err := ValidateDoubleEntry(lines, valueobject.MinorUnit(0))
	assert.NoError(t, err)

	lines[1].Amount = dec("998")
	_, err = ValidateDoubleEntry(lines, valueobject.MinorUnit(0))
	assert.True(t, errors.Is(err, ErrUnbalancedEntry))
}
