package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the read-only catalog projection this service prices carts from.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Slug          string    `gorm:"column:slug;not null"`
	PriceCents    int64     `gorm:"column:price_cents;not null"`
	ImageURL      *string   `gorm:"column:image_url"`
	StockQuantity int       `gorm:"column:stock_quantity;not null;default:0"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
