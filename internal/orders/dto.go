package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/money"
)

// OrderSummary is the order-history view returned to owners.
type OrderSummary struct {
	ID                  uuid.UUID           `json:"id"`
	OrderNumber         string              `json:"order_number"`
	Status              enums.OrderStatus   `json:"status"`
	PaymentStatus       enums.PaymentStatus `json:"payment_status"`
	TotalCents          int64               `json:"total_cents"`
	TotalDisplay        string              `json:"total_display"`
	Currency            string              `json:"currency"`
	Channel             *enums.Channel      `json:"channel,omitempty"`
	ChannelReference    *string             `json:"channel_reference,omitempty"`
	PaymentInstructions *string             `json:"payment_instructions,omitempty"`
	DeliveryAddress     string              `json:"delivery_address"`
	ContactNumber       string              `json:"contact_number"`
	Notes               *string             `json:"notes,omitempty"`
	PaidAt              *time.Time          `json:"paid_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	Lines               []LineSummary       `json:"lines"`
}

type LineSummary struct {
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	ProductName    string     `json:"product_name"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
	SubtotalCents  int64      `json:"subtotal_cents"`
}

// OrderList is a page of order summaries.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func NewOrderSummary(order *models.Order) OrderSummary {
	lines := make([]LineSummary, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, LineSummary{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			UnitPriceCents: l.UnitPriceCents,
			Quantity:       l.Quantity,
			SubtotalCents:  l.SubtotalCents,
		})
	}
	return OrderSummary{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		Status:              order.Status,
		PaymentStatus:       order.PaymentStatus,
		TotalCents:          order.TotalCents,
		TotalDisplay:        money.Label(order.Currency, order.TotalCents),
		Currency:            order.Currency,
		Channel:             order.Channel,
		ChannelReference:    order.ChannelReference,
		PaymentInstructions: order.PaymentInstructions,
		DeliveryAddress:     order.DeliveryAddress,
		ContactNumber:       order.ContactNumber,
		Notes:               order.Notes,
		PaidAt:              order.PaidAt,
		CreatedAt:           order.CreatedAt,
		Lines:               lines,
	}
}
