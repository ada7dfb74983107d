package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine snapshots a product's name and price at order time.
type OrderLine struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID      *uuid.UUID `gorm:"column:product_id;type:uuid"`
	ProductName    string     `gorm:"column:product_name;not null"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	SubtotalCents  int64      `gorm:"column:subtotal_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLine) TableName() string { return "order_lines" }
