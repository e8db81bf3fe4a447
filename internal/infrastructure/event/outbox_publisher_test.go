package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOutboxPublisher_PublishWithTx(t *testing.T) {
	db := setupOutboxTestDB(t)
	publisher := NewOutboxPublisher(NewEventSerializer())
	ctx := context.Background()

	tenantID := uuid.New()
	first := newTestEvent("ledger.test", tenantID)
	second := newTestEvent("ledger.test", tenantID)

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(ctx, tx, first, second)
	})
	require.NoError(t, err)

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, entry := range pending {
		assert.Equal(t, tenantID, entry.TenantID)
		assert.Equal(t, "Voucher", entry.AggregateType)
		assert.Contains(t, string(entry.Payload), `"note":"posted"`)
	}
}

func TestOutboxPublisher_PublishWithTx_NoEvents(t *testing.T) {
	db, mock := setupMockDB(t)

	err := NewOutboxPublisher(NewEventSerializer()).PublishWithTx(context.Background(), db)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_PublishWithTx_RollsBackWithCaller(t *testing.T) {
	db := setupOutboxTestDB(t)
	publisher := NewOutboxPublisher(NewEventSerializer())
	ctx := context.Background()

	boom := errors.New("posting failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := publisher.PublishWithTx(ctx, tx, newTestEvent("ledger.test", uuid.New())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	counts, err := NewGormOutboxRepository(db).CountByStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[shared.OutboxStatusPending])
}
