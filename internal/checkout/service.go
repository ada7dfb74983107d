package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cart"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	product "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/products"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/payloads"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service turns an owner's cart into a pending order.
type Service interface {
	CreateOrder(ctx context.Context, owner types.Owner, delivery DeliveryInfo, channelHint string) (*models.Order, error)
}

// DeliveryInfo is what the payer supplies at checkout.
type DeliveryInfo struct {
	Address string
	Contact string
	Notes   *string
}

type service struct {
	tx          txRunner
	cartRepo    cart.Repository
	ordersRepo  orders.Repository
	productRepo product.Repository
	outbox      outboxPublisher
	currency    string
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	productRepo product.Repository,
	publisher outboxPublisher,
	currency string,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if strings.TrimSpace(currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		productRepo: productRepo,
		outbox:      publisher,
		currency:    strings.ToUpper(currency),
		logg:        logg,
		now:         time.Now,
	}, nil
}

// CreateOrder claims the cart, prices it from the catalog and writes the
// order in one transaction. Any failure leaves the cart untouched.
func (s *service) CreateOrder(ctx context.Context, owner types.Owner, delivery DeliveryInfo, channelHint string) (*models.Order, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "checkout owner required")
	}
	delivery.Address = strings.TrimSpace(delivery.Address)
	delivery.Contact = strings.TrimSpace(delivery.Contact)
	if delivery.Address == "" || delivery.Contact == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery_address and contact_number are required")
	}

	var hint *enums.Channel
	if raw := strings.TrimSpace(channelHint); raw != "" {
		ch, err := enums.ParseChannel(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel")
		}
		hint = &ch
	}

	var (
		order *models.Order
		err   error
	)
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order, err = s.createOnce(ctx, owner, delivery, hint)
		if err == nil || !db.IsUniqueViolation(err, "ux_orders_order_number") && !db.IsUniqueViolation(err, "orders.order_number") {
			break
		}
	}
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "order number collision")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"order_number": order.OrderNumber, "total_cents": order.TotalCents})
		s.logg.Info(logCtx, "order.created")
	}
	return order, nil
}

func (s *service) createOnce(ctx context.Context, owner types.Owner, delivery DeliveryInfo, hint *enums.Channel) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.cartRepo.WithTx(tx).Claim(ctx, owner)
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart is empty")
		}

		ids := make([]uuid.UUID, 0, len(claimed))
		for _, line := range claimed {
			ids = append(ids, line.ProductID)
		}
		catalog, err := s.productRepo.WithTx(tx).FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		lines, total, err := priceLines(claimed, catalog)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:     orders.NewOrderNumber(s.now()),
			TotalCents:      total,
			Currency:        s.currency,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			Channel:         hint,
			ContactNumber:   delivery.Contact,
			DeliveryAddress: delivery.Address,
			Notes:           delivery.Notes,
			Lines:           lines,
		}
		if owner.UserID != nil {
			order.UserID = owner.UserID
		} else {
			token := owner.GuestToken
			order.GuestToken = &token
		}

		created, err = s.ordersRepo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   enums.EventOrderCreated,
			AggregateID: created.ID,
			Actor:       actorFor(owner),
			Data: payloads.OrderCreatedEvent{
				OrderID:     created.ID,
				OrderNumber: created.OrderNumber,
				UserID:      created.UserID,
				Guest:       owner.IsGuest(),
				TotalCents:  created.TotalCents,
				Currency:    created.Currency,
				LineCount:   len(created.Lines),
			},
		})
	})
	return created, err
}

func actorFor(owner types.Owner) *outbox.ActorRef {
	if owner.UserID != nil {
		return &outbox.ActorRef{Kind: outbox.ActorUser, ID: owner.UserID.String()}
	}
	return &outbox.ActorRef{Kind: outbox.ActorGuest}
}
