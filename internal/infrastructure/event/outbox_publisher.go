package event

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// OutboxPublisher writes ledger events to the outbox inside the posting transaction
type OutboxPublisher struct {
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
	}
}

// WithMaxRetries sets the delivery attempts recorded on new entries
func (p *OutboxPublisher) WithMaxRetries(n int) *OutboxPublisher {
	p.maxRetries = n
	return p
}

// PublishWithTx serializes the events and saves them through tx, so they
// commit or roll back together with the voucher that raised them
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entry := shared.NewOutboxEntry(event.TenantID(), event, payload)
		if p.maxRetries > 0 {
			entry.MaxRetries = p.maxRetries
		}
		entries = append(entries, entry)
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

var _ persistence.TxEventPublisher = (*OutboxPublisher)(nil)
