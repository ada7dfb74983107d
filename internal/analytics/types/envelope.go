package types

import (
	"encoding/json"
	"time"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
)

// Envelope is a payment event as received from the payments subscription.
type Envelope struct {
	EventID     string                `json:"event_id"`
	EventType   enums.OutboxEventType `json:"event_type"`
	AggregateID string                `json:"aggregate_id"`
	Version     int                   `json:"version"`
	OccurredAt  time.Time             `json:"occurred_at"`
	Actor       *outbox.ActorRef      `json:"actor,omitempty"`
	Payload     json.RawMessage       `json:"payload"`
}
