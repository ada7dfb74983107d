package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

// Repository defines the persistence surface of the cart store. Every write
// is scoped to the owner; a line id from another owner matches nothing.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListDetailed(ctx context.Context, owner types.Owner) ([]LineRow, error)
	ListLines(ctx context.Context, owner types.Owner) ([]models.CartLine, error)
	Upsert(ctx context.Context, owner types.Owner, productID uuid.UUID, quantity int) (*models.CartLine, error)
	UpdateQuantity(ctx context.Context, owner types.Owner, lineID uuid.UUID, quantity int) (int64, error)
	Delete(ctx context.Context, owner types.Owner, lineID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context, owner types.Owner) (int64, error)
	Claim(ctx context.Context, owner types.Owner) ([]models.CartLine, error)
}

// LineRow is a cart line joined with its current catalog row. Catalog fields
// are nil when the product no longer exists.
type LineRow struct {
	ID         uuid.UUID `gorm:"column:id"`
	ProductID  uuid.UUID `gorm:"column:product_id"`
	Quantity   int       `gorm:"column:quantity"`
	Name       *string   `gorm:"column:name"`
	PriceCents *int64    `gorm:"column:price_cents"`
	ImageURL   *string   `gorm:"column:image_url"`
	IsActive   *bool     `gorm:"column:is_active"`
}
