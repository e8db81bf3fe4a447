package event

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LogSink delivers outbox entries to the application log.
// It is the default sink for single-node deployments without a broker.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs every delivered entry at Info
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Deliver logs the entry
func (s *LogSink) Deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	s.logger.Info("ledger event",
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("tenant_id", entry.TenantID.String()),
		zap.String("aggregate_type", entry.AggregateType),
		zap.String("aggregate_id", entry.AggregateID.String()),
		zap.ByteString("payload", entry.Payload),
	)
	return nil
}

// RedisStreamSink appends outbox entries to a Redis stream.
// Consumers read with XREADGROUP and deduplicate on event_id.
type RedisStreamSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewRedisStreamSink creates a sink writing to stream, trimmed approximately to maxLen.
// A maxLen of zero leaves the stream untrimmed.
func NewRedisStreamSink(client redis.UniversalClient, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

// Deliver appends the entry to the stream
func (s *RedisStreamSink) Deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	if err := s.client.XAdd(ctx, s.streamArgs(entry)).Err(); err != nil {
		return fmt.Errorf("failed to append event %s to stream %s: %w", entry.EventID, s.stream, err)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisStreamSink) Close() error {
	return s.client.Close()
}

func (s *RedisStreamSink) streamArgs(entry *shared.OutboxEntry) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: s.maxLen > 0,
		Values: map[string]any{
			"event_id":       entry.EventID.String(),
			"event_type":     entry.EventType,
			"tenant_id":      entry.TenantID.String(),
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID.String(),
			"payload":        string(entry.Payload),
		},
	}
}

var (
	_ shared.EventSink = (*LogSink)(nil)
	_ shared.EventSink = (*RedisStreamSink)(nil)
)
