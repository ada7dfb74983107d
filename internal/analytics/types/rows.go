package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// PaymentEventRow mirrors the payment_events BigQuery schema. One row is
// written per outbox event.
type PaymentEventRow struct {
	EventID          string             `bigquery:"event_id"`
	EventType        string             `bigquery:"event_type"`
	OccurredAt       time.Time          `bigquery:"occurred_at"`
	OrderID          string             `bigquery:"order_id"`
	OrderNumber      *string            `bigquery:"order_number"`
	Channel          *string            `bigquery:"channel"`
	ChannelReference *string            `bigquery:"channel_reference"`
	PaymentStatus    *string            `bigquery:"payment_status"`
	AmountCents      *int64             `bigquery:"amount_cents"`
	Currency         *string            `bigquery:"currency"`
	Fallback         *bool              `bigquery:"fallback"`
	ActorKind        *string            `bigquery:"actor_kind"`
	Payload          cbigquery.NullJSON `bigquery:"payload"`
}
