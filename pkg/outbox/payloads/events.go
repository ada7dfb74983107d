package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
)

// OrderCreatedEvent is emitted when a cart is converted into an order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Guest       bool       `json:"guest"`
	TotalCents  int64      `json:"total_cents"`
	Currency    string     `json:"currency"`
	LineCount   int        `json:"line_count"`
}

// PaymentInitiatedEvent records the channel and reference chosen for an order.
type PaymentInitiatedEvent struct {
	OrderID          uuid.UUID     `json:"order_id"`
	Channel          enums.Channel `json:"channel"`
	ChannelReference string        `json:"channel_reference"`
	Fallback         bool          `json:"fallback"`
	TotalCents       int64         `json:"total_cents"`
	Currency         string        `json:"currency"`
}

// OrderPaidEvent is emitted once per order when settlement is confirmed.
type OrderPaidEvent struct {
	OrderID          uuid.UUID     `json:"order_id"`
	OrderNumber      string        `json:"order_number"`
	Channel          enums.Channel `json:"channel"`
	ChannelReference string        `json:"channel_reference"`
	TotalCents       int64         `json:"total_cents"`
	Currency         string        `json:"currency"`
	PaidAt           time.Time     `json:"paid_at"`
}

// PaymentFailedEvent is emitted when a channel reports a failed attempt.
type PaymentFailedEvent struct {
	OrderID          uuid.UUID     `json:"order_id"`
	Channel          enums.Channel `json:"channel"`
	ChannelReference string        `json:"channel_reference"`
	Reason           string        `json:"reason,omitempty"`
}

// OrderExpiredEvent is emitted by the stale-payment job.
type OrderExpiredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	PendingFor  string    `json:"pending_for"`
	ExpiredAt   time.Time `json:"expired_at"`
}
