package accounting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResetPolicy_PeriodKey(t *testing.T) {
	date := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		policy ResetPolicy
		want   string
	}{
		{ResetNever, ""},
		{ResetYearly, "2026"},
		{ResetMonthly, "2026-10"},
		{ResetDaily, "2026-10-14"},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.PeriodKey(date))
		})
	}
}

func TestSequenceDefinition_Format(t *testing.T) {
	def := VoucherSequence(VoucherTypeReceipt, "")
	assert.Equal(t, "voucher.RECEIPT", def.Key)
	assert.Equal(t, ResetNever, def.ResetPolicy)
	assert.Equal(t, "RV-000001", def.Format(1))
	assert.Equal(t, "RV-123456", def.Format(123456))
	assert.Equal(t, "RV-1234567", def.Format(1234567))
}

func TestSequenceDefinition_Validate(t *testing.T) {
	assert.NoError(t, VoucherSequence(VoucherTypeJournal, ResetYearly).Validate())
	assert.Error(t, SequenceDefinition{Prefix: "X"}.Validate())
	assert.Error(t, SequenceDefinition{Key: "k", ResetPolicy: "HOURLY"}.Validate())
}

func TestSequenceDefinition_Number(t *testing.T) {
	date := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "JV-000007", VoucherSequence(VoucherTypeJournal, ResetNever).Number(date, 7))
	assert.Equal(t, "JV-2026-000007", VoucherSequence(VoucherTypeJournal, ResetYearly).Number(date, 7))
	assert.Equal(t, "PV-2026-10-000001", VoucherSequence(VoucherTypePayment, ResetMonthly).Number(date, 1))
}
