package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/repo"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/pagination"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

const maxListLimit = 100

type repository struct {
	base repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.Bind(tx)}
}

// Create inserts the order and its lines. IDs are assigned here so the
// caller can reference them before commit.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	lines := order.Lines
	if err := r.base.DB(ctx).Omit("Lines").Create(order).Error; err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return order, nil
	}
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].OrderID = order.ID
	}
	if err := r.base.DB(ctx).Create(&lines).Error; err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	return r.findOne(ctx, "channel_reference = ?", reference)
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where(query, arg).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByOwner returns the owner's orders newest first, keyset-paginated on
// (created_at, id).
func (r *repository) ListByOwner(ctx context.Context, owner types.Owner, params pagination.Params) (pagination.Page[models.Order], error) {
	limit := pagination.NormalizeLimit(params.Limit, maxListLimit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}

	query := r.base.DB(ctx).Model(&models.Order{})
	query = scopeOwner(query, owner)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}

	return pagination.Paginate(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

// AssignReference records the latest settlement attempt unless the order is
// already paid. It never changes payment_status.
func (r *repository) AssignReference(ctx context.Context, orderID uuid.UUID, attempt SettlementAttempt) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"channel":              string(attempt.Channel),
			"channel_reference":    attempt.Reference,
			"contact_number":       attempt.Contact,
			"payment_instructions": attempt.Instructions,
			"updated_at":           time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// Finalize applies a channel outcome to the order holding reference.
// Success moves anything but paid to paid; failure moves only pending.
// A zero count means the transition was already applied or not allowed.
func (r *repository) Finalize(ctx context.Context, reference string, outcome enums.CallbackOutcome, declared *enums.Channel, at time.Time) (int64, error) {
	var declaredValue any
	if declared != nil {
		declaredValue = string(*declared)
	}

	query := r.base.DB(ctx).Model(&models.Order{}).Where("channel_reference = ?", reference)
	updates := map[string]any{
		"channel":    gorm.Expr("COALESCE(channel, ?)", declaredValue),
		"updated_at": at,
	}

	switch outcome {
	case enums.OutcomeSuccess:
		query = query.Where("payment_status <> ?", enums.PaymentStatusPaid)
		updates["payment_status"] = enums.PaymentStatusPaid
		updates["status"] = enums.OrderStatusProcessing
		updates["paid_at"] = at
	case enums.OutcomeFailed:
		query = query.Where("payment_status = ?", enums.PaymentStatusPending)
		updates["payment_status"] = enums.PaymentStatusFailed
	default:
		return 0, fmt.Errorf("unknown outcome %q", outcome)
	}

	res := query.Updates(updates)
	return res.RowsAffected, res.Error
}

// FindStalePending lists mobile orders that received a reference but never
// settled before cutoff.
func (r *repository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = maxListLimit
	}
	var rows []models.Order
	err := r.base.DB(ctx).
		Where("payment_status = ?", enums.PaymentStatusPending).
		Where("channel_reference IS NOT NULL AND channel IS NOT NULL AND channel <> ?", enums.ChannelCard).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ExpireStale fails and cancels an order still pending and untouched since
// cutoff. A re-initiation after cutoff bumps updated_at and keeps it alive.
func (r *repository) ExpireStale(ctx context.Context, orderID uuid.UUID, cutoff time.Time) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
		Where("updated_at < ?", cutoff).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"status":         enums.OrderStatusCancelled,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func scopeOwner(query *gorm.DB, owner types.Owner) *gorm.DB {
	if owner.UserID != nil {
		return query.Where("user_id = ?", *owner.UserID)
	}
	return query.Where("guest_token = ?", owner.GuestToken)
}
