package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateOrder
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated     OutboxEventType = "order_created"
	EventPaymentInitiated OutboxEventType = "payment_initiated"
	EventOrderPaid        OutboxEventType = "order_paid"
	EventPaymentFailed    OutboxEventType = "payment_failed"
	EventOrderExpired     OutboxEventType = "order_expired"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventPaymentInitiated,
	EventOrderPaid,
	EventPaymentFailed,
	EventOrderExpired,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
