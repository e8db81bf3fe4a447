package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MockEventSink records delivered outbox entries. It implements shared.EventSink.
type MockEventSink struct {
	mu        sync.Mutex
	delivered []*shared.OutboxEntry
	err       error
}

// NewMockEventSink creates a new mock event sink.
func NewMockEventSink() *MockEventSink {
	return &MockEventSink{}
}

// Deliver records the entry and returns the configured error.
func (s *MockEventSink) Deliver(_ context.Context, entry *shared.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, entry)
	return nil
}

// Delivered returns a copy of every delivered entry.
func (s *MockEventSink) Delivered() []*shared.OutboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*shared.OutboxEntry, len(s.delivered))
	copy(result, s.delivered)
	return result
}

// DeliveredCount returns the number of delivered entries.
func (s *MockEventSink) DeliveredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

// EventTypes returns the event type of every delivered entry, in delivery order.
func (s *MockEventSink) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.delivered))
	for _, e := range s.delivered {
		types = append(types, e.EventType)
	}
	return types
}

// SetError makes subsequent deliveries fail with err.
func (s *MockEventSink) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reset clears all delivered entries and the configured error.
func (s *MockEventSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = nil
	s.err = nil
}

// TestEvent is a simple domain event for testing.
type TestEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

// NewTestEvent creates a new test event.
func NewTestEvent(eventType string, tenantID uuid.UUID) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:            uuid.New(),
			Type:          eventType,
			TenantIDValue: tenantID,
			Timestamp:     time.Now(),
			AggID:         uuid.New(),
			AggType:       "TestAggregate",
			Version:       1,
		},
		Data: "test-data",
	}
}

// WaitForCondition waits for a condition to become true.
// Returns true if the condition was met, false if timeout occurred.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}

// WaitForDeliveryCount waits until the sink has received at least count entries.
func WaitForDeliveryCount(t *testing.T, sink *MockEventSink, count int, timeout time.Duration) bool {
	t.Helper()

	return WaitForCondition(t, func() bool {
		return sink.DeliveredCount() >= count
	}, timeout, 10*time.Millisecond)
}
