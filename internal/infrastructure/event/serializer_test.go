package event

import (
	"testing"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_Register(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("ledger.test", &testEvent{})

	assert.True(t, serializer.IsRegistered("ledger.test"))
	assert.False(t, serializer.IsRegistered("ledger.unknown"))
}

func TestNewLedgerEventSerializer_RegistersLedgerEvents(t *testing.T) {
	assert.Equal(t, []string{
		accounting.EventTypeVoucherCancelled,
		accounting.EventTypeVoucherPosted,
		accounting.EventTypeVoucherReversed,
	}, NewLedgerEventSerializer().RegisteredTypes())
}

func TestEventSerializer_RoundTripsVoucherPosted(t *testing.T) {
	serializer := NewLedgerEventSerializer()
	ledgerID := uuid.New()
	event := &accounting.VoucherPostedEvent{
		BaseDomainEvent: newTestEvent(accounting.EventTypeVoucherPosted, uuid.New()).BaseDomainEvent,
		VoucherID:       uuid.New(),
		Number:          "JV-000042",
		VoucherType:     accounting.VoucherTypeJournal,
		TotalDebit:      decimal.RequireFromString("100.50"),
		TotalCredit:     decimal.RequireFromString("100.50"),
		Lines: []accounting.VoucherLineEvent{
			{LineNo: 1, LedgerID: ledgerID, EntryKind: accounting.Debit, Amount: decimal.RequireFromString("100.50")},
		},
	}

	payload, err := serializer.Serialize(event)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"number":"JV-000042"`)

	decoded, err := serializer.Deserialize(accounting.EventTypeVoucherPosted, payload)
	require.NoError(t, err)
	posted, ok := decoded.(*accounting.VoucherPostedEvent)
	require.True(t, ok)
	assert.Equal(t, event.EventID(), posted.EventID())
	assert.Equal(t, event.TenantID(), posted.TenantID())
	assert.True(t, posted.TotalDebit.Equal(event.TotalDebit))
	require.Len(t, posted.Lines, 1)
	assert.Equal(t, ledgerID, posted.Lines[0].LedgerID)
}

func TestEventSerializer_DeserializeErrors(t *testing.T) {
	serializer := NewLedgerEventSerializer()

	_, err := serializer.Deserialize("ledger.unknown", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")

	_, err = serializer.Deserialize(accounting.EventTypeVoucherPosted, []byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to deserialize")
}
