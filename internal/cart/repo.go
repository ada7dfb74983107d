package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/repo"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

type repository struct {
	base repo.Base
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.Bind(tx)}
}

func (r *repository) ListDetailed(ctx context.Context, owner types.Owner) ([]LineRow, error) {
	var rows []LineRow
	query := r.base.DB(ctx).
		Table("cart_lines").
		Select("cart_lines.id, cart_lines.product_id, cart_lines.quantity, products.name, products.price_cents, products.image_url, products.is_active").
		Joins("LEFT JOIN products ON products.id = cart_lines.product_id")
	err := scopeOwner(query, owner, "cart_lines.").
		Order("cart_lines.created_at ASC").
		Order("cart_lines.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) ListLines(ctx context.Context, owner types.Owner) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := scopeOwner(r.base.DB(ctx), owner, "").
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// Upsert adds quantity to the owner's line for product in one statement, so
// concurrent adds sum instead of overwriting.
func (r *repository) Upsert(ctx context.Context, owner types.Owner, productID uuid.UUID, quantity int) (*models.CartLine, error) {
	now := time.Now().UTC()
	line := &models.CartLine{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	conflictCols := []clause.Column{{Name: "guest_token"}, {Name: "product_id"}}
	if owner.UserID != nil {
		line.UserID = owner.UserID
		conflictCols = []clause.Column{{Name: "user_id"}, {Name: "product_id"}}
	} else {
		token := owner.GuestToken
		line.GuestToken = &token
	}

	err := r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: conflictCols,
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
				"updated_at": now,
			}),
		}).
		Create(line).Error
	if err != nil {
		return nil, err
	}

	var stored models.CartLine
	err = scopeOwner(r.base.DB(ctx), owner, "").
		Where("product_id = ?", productID).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repository) UpdateQuantity(ctx context.Context, owner types.Owner, lineID uuid.UUID, quantity int) (int64, error) {
	res := scopeOwner(r.base.DB(ctx).Model(&models.CartLine{}), owner, "").
		Where("id = ?", lineID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, owner types.Owner, lineID uuid.UUID) (int64, error) {
	res := scopeOwner(r.base.DB(ctx), owner, "").
		Where("id = ?", lineID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteAll(ctx context.Context, owner types.Owner) (int64, error) {
	res := scopeOwner(r.base.DB(ctx), owner, "").Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// Claim deletes and returns the owner's lines in one statement. Run inside
// the checkout transaction: a concurrent claimer waits on the row locks and
// then sees nothing.
func (r *repository) Claim(ctx context.Context, owner types.Owner) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := scopeOwner(r.base.DB(ctx), owner, "").
		Clauses(clause.Returning{}).
		Delete(&lines).Error
	return lines, err
}

func scopeOwner(query *gorm.DB, owner types.Owner, prefix string) *gorm.DB {
	if owner.UserID != nil {
		return query.Where(prefix+"user_id = ?", *owner.UserID)
	}
	return query.Where(prefix+"guest_token = ?", owner.GuestToken)
}
