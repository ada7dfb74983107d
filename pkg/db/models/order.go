package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
)

// Order is the ledger row for one checkout. TotalCents never changes after
// insert; payment fields move only through the guarded ledger writes.
type Order struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	GuestToken          *string             `gorm:"column:guest_token"`
	OrderNumber         string              `gorm:"column:order_number;not null"`
	TotalCents          int64               `gorm:"column:total_cents;not null"`
	Currency            string              `gorm:"column:currency;not null"`
	Status              enums.OrderStatus   `gorm:"column:status;type:order_status_enum;not null"`
	PaymentStatus       enums.PaymentStatus `gorm:"column:payment_status;type:payment_status_enum;not null"`
	Channel             *enums.Channel      `gorm:"column:channel"`
	ChannelReference    *string             `gorm:"column:channel_reference"`
	ContactNumber       string              `gorm:"column:contact_number;not null"`
	DeliveryAddress     string              `gorm:"column:delivery_address;not null"`
	Notes               *string             `gorm:"column:notes"`
	PaymentInstructions *string             `gorm:"column:payment_instructions"`
	PaidAt              *time.Time          `gorm:"column:paid_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Lines               []OrderLine         `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

// ChannelName returns the recorded channel or "" when none is set.
func (o *Order) ChannelName() string {
	if o == nil || o.Channel == nil {
		return ""
	}
	return string(*o.Channel)
}

// Reference returns the recorded channel reference or "".
func (o *Order) Reference() string {
	if o == nil || o.ChannelReference == nil {
		return ""
	}
	return *o.ChannelReference
}
