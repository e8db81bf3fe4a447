package settlement

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createPostedInvoice(t *testing.T, tenantID, party uuid.UUID, total string) *Invoice {
	inv, err := NewInvoice(tenantID, "INV-"+uuid.NewString()[:8], party, valueobject.USD, dec(total), time.Now())
	require.NoError(t, err)
	require.NoError(t, inv.Post())
	return inv
}

func TestDeriveInvoiceStatus(t *testing.T) {
	tests := []struct {
		received string
		want     InvoiceStatus
	}{
		{"0", InvoiceStatusPosted},
		{"0.01", InvoiceStatusPartiallyPaid},
		{"999.99", InvoiceStatusPartiallyPaid},
		{"1000", InvoiceStatusPaid},
		{"1000.50", InvoiceStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.received, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveInvoiceStatus(dec(tt.received), dec("1000")))
		})
	}
}

func TestInvoice_ApplyReceipt(t *testing.T) {
	inv := createPostedInvoice(t, uuid.New(), uuid.New(), "1000.00")

	require.NoError(t, inv.ApplyReceipt(dec("500.00")))
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	assert.True(t, inv.Outstanding().Equal(dec("500")))

	require.NoError(t, inv.ApplyReceipt(dec("500.00")))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.Outstanding().IsZero())

	err := inv.ApplyReceipt(dec("0.01"))
	assert.True(t, errors.Is(err, ErrOverpayment))
	assert.True(t, inv.AmountReceived.Equal(dec("1000")))
}

func TestInvoice_ApplyReceipt_Draft(t *testing.T) {
	inv, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), valueobject.USD, dec("10"), time.Now())
	require.NoError(t, err)
	assert.True(t, errors.Is(inv.ApplyReceipt(dec("1")), ErrInvoiceNotPayable))
}

func TestInvoice_RecomputeReceived(t *testing.T) {
	inv := createPostedInvoice(t, uuid.New(), uuid.New(), "1000")
	require.NoError(t, inv.ApplyReceipt(dec("1000")))

	inv.RecomputeReceived(decimal.Zero)
	assert.True(t, inv.AmountReceived.IsZero())
	assert.Equal(t, InvoiceStatusPosted, inv.Status)

	inv.RecomputeReceived(dec("-3"))
	assert.True(t, inv.AmountReceived.IsZero())
}

func TestCreditExposure(t *testing.T) {
	tenant, party := uuid.New(), uuid.New()
	a := createPostedInvoice(t, tenant, party, "1000")
	b := createPostedInvoice(t, tenant, party, "300")
	require.NoError(t, b.ApplyReceipt(dec("100")))
	paid := createPostedInvoice(t, tenant, party, "50")
	require.NoError(t, paid.ApplyReceipt(dec("50")))
	draft, err := NewInvoice(tenant, "INV-D", party, valueobject.USD, dec("999"), time.Now())
	require.NoError(t, err)

	assert.True(t, CreditExposure([]*Invoice{a, b, paid, draft}).Equal(dec("1200")))
	assert.True(t, CreditExposure(nil).IsZero())

	// an open invoice whose received total drifted past its grand total still floors at zero
	b.AmountReceived = dec("5000")
	assert.True(t, CreditExposure([]*Invoice{b}).IsZero())
}
