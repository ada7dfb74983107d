// Package payments routes an order to a settlement channel and records the
// attempt on the ledger.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/settlement"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/payloads"
)

const defaultInitiateTimeout = 10 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type adapterResolver interface {
	Resolve(channel string) (settlement.Adapter, error)
	Channels() []enums.Channel
}

// Service is the payment orchestrator.
type Service interface {
	InitiatePayment(ctx context.Context, orderID uuid.UUID, channel, contact string) (*Initiation, error)
	GetStatus(ctx context.Context, query StatusQuery) (*Status, error)
	Channels() []enums.Channel
}

// Initiation is what the payer needs to complete a mobile payment.
type Initiation struct {
	OrderID          uuid.UUID     `json:"order_id"`
	Channel          enums.Channel `json:"channel"`
	ChannelReference string        `json:"channel_reference"`
	Instructions     string        `json:"instructions"`
	Fallback         bool          `json:"fallback"`
}

// StatusQuery looks an order up by id or by channel reference.
type StatusQuery struct {
	OrderID   *uuid.UUID
	Reference string
}

type Status struct {
	OrderID          uuid.UUID           `json:"order_id"`
	OrderNumber      string              `json:"order_number"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
	OrderStatus      enums.OrderStatus   `json:"order_status"`
	Channel          *enums.Channel      `json:"channel,omitempty"`
	ChannelReference *string             `json:"channel_reference,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
}

// Config tunes the orchestrator.
type Config struct {
	InitiateTimeout time.Duration
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	registry adapterResolver
	outbox   outboxPublisher
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
	timeout  time.Duration
	newRef   func() string
}

func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	registry adapterResolver,
	publisher outboxPublisher,
	m *metrics.PaymentMetrics,
	logg *logger.Logger,
	cfg Config,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if registry == nil {
		return nil, fmt.Errorf("adapter registry required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	timeout := cfg.InitiateTimeout
	if timeout <= 0 {
		timeout = defaultInitiateTimeout
	}
	return &service{
		tx:       tx,
		orders:   ordersRepo,
		registry: registry,
		outbox:   publisher,
		metrics:  m,
		logg:     logg,
		timeout:  timeout,
		newRef:   uuid.NewString,
	}, nil
}

func (s *service) Channels() []enums.Channel {
	return s.registry.Channels()
}

// InitiatePayment records a settlement attempt for the order. The adapter is
// called outside any transaction; when it is unavailable or fails, the payer
// gets a locally minted reference and generic instructions instead of an
// error.
func (s *service) InitiatePayment(ctx context.Context, orderID uuid.UUID, channel, contact string) (*Initiation, error) {
	ch, err := enums.ParseChannel(channel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel")
	}
	if !ch.IsMobile() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card payments use the card checkout flow")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
	}

	contact = strings.TrimSpace(contact)
	if contact == "" {
		contact = order.ContactNumber
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	started := time.Now()
	initiation, mode := s.initiate(logCtx, order, ch, contact)
	s.metrics.ObserveInitiation(string(ch), mode, time.Since(started))

	attempt := orders.SettlementAttempt{
		Channel:      ch,
		Reference:    initiation.Reference,
		Contact:      contact,
		Instructions: initiation.Instructions,
	}
	fallback := mode == metrics.ModeFallback

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.orders.WithTx(tx).AssignReference(ctx, order.ID, attempt)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   enums.EventPaymentInitiated,
			AggregateID: order.ID,
			Actor:       &outbox.ActorRef{Kind: outbox.ActorSystem},
			Data: payloads.PaymentInitiatedEvent{
				OrderID:          order.ID,
				Channel:          ch,
				ChannelReference: attempt.Reference,
				Fallback:         fallback,
				TotalCents:       order.TotalCents,
				Currency:         order.Currency,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "channel reference already assigned")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment attempt")
	}

	s.logg.Info(s.logg.WithChannel(logCtx, string(ch), attempt.Reference), "payment.initiated")
	return &Initiation{
		OrderID:          order.ID,
		Channel:          ch,
		ChannelReference: attempt.Reference,
		Instructions:     attempt.Instructions,
		Fallback:         fallback,
	}, nil
}

// initiate never fails: every adapter problem lands on the fallback.
func (s *service) initiate(ctx context.Context, order *models.Order, ch enums.Channel, contact string) (*settlement.Initiation, string) {
	adapter, err := s.registry.Resolve(string(ch))
	if err == nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var res *settlement.Initiation
		res, err = adapter.Initiate(callCtx, settlement.InitiateOrder{
			ID:          order.ID,
			OrderNumber: order.OrderNumber,
			TotalCents:  order.TotalCents,
			Currency:    order.Currency,
		}, contact)
		if err == nil && res != nil && strings.TrimSpace(res.Reference) != "" {
			mode := metrics.ModeLive
			if res.Mode == settlement.ModeManual {
				mode = metrics.ModeManual
			}
			return res, mode
		}
		if err == nil {
			err = fmt.Errorf("adapter returned no reference")
		}
	}

	s.logg.Warn(s.logg.WithField(s.logg.WithChannel(ctx, string(ch), ""), "reason", err.Error()), "payment.initiate_fallback")
	return &settlement.Initiation{
		Reference:    s.newRef(),
		Instructions: settlement.GenericInstructions(ch, order.Currency, order.TotalCents),
		Mode:         metrics.ModeFallback,
	}, metrics.ModeFallback
}

// GetStatus is a pure read. An unknown id or reference is NOT_FOUND, never
// reported as pending.
func (s *service) GetStatus(ctx context.Context, query StatusQuery) (*Status, error) {
	var (
		order *models.Order
		err   error
	)
	reference := strings.TrimSpace(query.Reference)
	switch {
	case query.OrderID != nil && *query.OrderID != uuid.Nil:
		order, err = s.orders.FindByID(ctx, *query.OrderID)
	case reference != "":
		order, err = s.orders.FindByReference(ctx, reference)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id or reference is required")
	}
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return StatusOf(order), nil
}

func StatusOf(order *models.Order) *Status {
	return &Status{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		PaymentStatus:    order.PaymentStatus,
		OrderStatus:      order.Status,
		Channel:          order.Channel,
		ChannelReference: order.ChannelReference,
		PaidAt:           order.PaidAt,
	}
}
