package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
)

// EventSerializer converts ledger events to and from their outbox payloads
type EventSerializer struct {
	mu         sync.RWMutex
	eventTypes map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		eventTypes: make(map[string]reflect.Type),
	}
}

// NewLedgerEventSerializer creates a serializer that knows every event the ledger emits
func NewLedgerEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(accounting.EventTypeVoucherPosted, &accounting.VoucherPostedEvent{})
	s.Register(accounting.EventTypeVoucherReversed, &accounting.VoucherReversedEvent{})
	s.Register(accounting.EventTypeVoucherCancelled, &accounting.VoucherCancelledEvent{})
	return s
}

// Register binds an event type name to its concrete struct.
// Pointer prototypes are accepted and stored by their element type.
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.eventTypes[eventType] = t
}

// Serialize encodes an event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes a payload into the concrete event registered for eventType
func (s *EventSerializer) Deserialize(eventType string, payload []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.eventTypes[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("failed to deserialize event %s: %w", eventType, err)
	}

	event, ok := ptr.Interface().(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement DomainEvent", t.Name())
	}
	return event, nil
}

// IsRegistered reports whether the event type is known
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.eventTypes[eventType]
	return ok
}

// RegisteredTypes returns the known event type names in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.eventTypes))
	for t := range s.eventTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
