package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	orderID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventPaymentInitiated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: mustEnvelope(t, mustMarshal(t, payloads.PaymentInitiatedEvent{
			OrderID:          orderID,
			Channel:          enums.ChannelAirtelMoney,
			ChannelReference: "AM-42",
		})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "payments-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.PaymentInitiatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.ChannelReference != "AM-42" || payload.OrderID != orderID {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" || resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope metadata missing: %+v", resolved.Envelope)
	}
}

func TestEventRegistryResolveRejects(t *testing.T) {
	reg := newTestEventRegistry(t)
	validPayload := mustEnvelope(t, []byte(`{"order_id":"`+uuid.NewString()+`"}`))

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType:     enums.OutboxEventType("refund_issued"),
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       validPayload,
		},
		"aggregate mismatch": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.OutboxAggregateType("cart"),
			AggregateID:   uuid.New(),
			Payload:       validPayload,
		},
		"missing aggregate id": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			Payload:       validPayload,
		},
		"bad envelope": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`not-json`),
		},
		"null data": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`null`)),
		},
	}

	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			var nonRetry NonRetryableError
			if !errors.As(err, &nonRetry) {
				t.Fatalf("expected non-retryable error, got %v", err)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatal("expected error without payments topic")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{PaymentsTopic: "payments-topic"})
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func mustEnvelope(t *testing.T, data []byte) json.RawMessage {
	t.Helper()
	return mustMarshal(t, outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}
