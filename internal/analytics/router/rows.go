package router

import (
	"fmt"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/analytics/types"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/payloads"
)

// BuildRow flattens a decoded payment event into a payment_events row. The
// raw payload is kept alongside the typed columns.
func BuildRow(envelope types.Envelope, decoded any) (types.PaymentEventRow, error) {
	row := types.PaymentEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		OrderID:    envelope.AggregateID,
		Payload:    cbigquery.NullJSON{Valid: len(envelope.Payload) > 0, JSONVal: string(envelope.Payload)},
	}
	if envelope.Actor != nil && envelope.Actor.Kind != "" {
		row.ActorKind = ptr(envelope.Actor.Kind)
	}

	switch event := decoded.(type) {
	case *payloads.OrderCreatedEvent:
		row.OrderID = event.OrderID.String()
		row.OrderNumber = ptr(event.OrderNumber)
		row.PaymentStatus = ptr(string(enums.PaymentStatusPending))
		row.AmountCents = ptr(event.TotalCents)
		row.Currency = ptr(event.Currency)
	case *payloads.PaymentInitiatedEvent:
		row.OrderID = event.OrderID.String()
		row.Channel = ptr(string(event.Channel))
		row.ChannelReference = ptr(event.ChannelReference)
		row.PaymentStatus = ptr(string(enums.PaymentStatusPending))
		row.AmountCents = ptr(event.TotalCents)
		row.Currency = ptr(event.Currency)
		row.Fallback = ptr(event.Fallback)
	case *payloads.OrderPaidEvent:
		row.OrderID = event.OrderID.String()
		row.OrderNumber = ptr(event.OrderNumber)
		row.Channel = ptr(string(event.Channel))
		row.ChannelReference = ptr(event.ChannelReference)
		row.PaymentStatus = ptr(string(enums.PaymentStatusPaid))
		row.AmountCents = ptr(event.TotalCents)
		row.Currency = ptr(event.Currency)
	case *payloads.PaymentFailedEvent:
		row.OrderID = event.OrderID.String()
		row.Channel = ptr(string(event.Channel))
		row.ChannelReference = ptr(event.ChannelReference)
		row.PaymentStatus = ptr(string(enums.PaymentStatusFailed))
	case *payloads.OrderExpiredEvent:
		row.OrderID = event.OrderID.String()
		row.OrderNumber = ptr(event.OrderNumber)
		row.PaymentStatus = ptr(string(enums.PaymentStatusFailed))
	default:
		return types.PaymentEventRow{}, fmt.Errorf("%w: payload %T", ErrUnsupportedEventType, decoded)
	}
	return row, nil
}

func ptr[T any](v T) *T {
	return &v
}
