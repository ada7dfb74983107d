package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/pagination"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

// Repository defines persistence operations for the order ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByOwner(ctx context.Context, owner types.Owner, params pagination.Params) (pagination.Page[models.Order], error)
	AssignReference(ctx context.Context, orderID uuid.UUID, attempt SettlementAttempt) (int64, error)
	Finalize(ctx context.Context, reference string, outcome enums.CallbackOutcome, declared *enums.Channel, at time.Time) (int64, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ExpireStale(ctx context.Context, orderID uuid.UUID, cutoff time.Time) (int64, error)
}

// SettlementAttempt is the latest channel selection recorded on an order.
type SettlementAttempt struct {
	Channel      enums.Channel
	Reference    string
	Contact      string
	Instructions string
}
