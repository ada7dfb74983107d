package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one pending product in a cart. Exactly one of UserID and
// GuestToken is set.
type CartLine struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid"`
	GuestToken *string    `gorm:"column:guest_token"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Quantity   int        `gorm:"column:quantity;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLine) TableName() string { return "cart_lines" }
