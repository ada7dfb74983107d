// Package reconciler applies channel outcomes to the order ledger. It is the
// only writer of payment finalization.
package reconciler

import (
	"context"
	"fmt"
	"net/http"
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
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/redis"
)

const defaultDedupeTTL = 10 * time.Minute

// Callback results, used as the metric label and in acknowledgements.
const (
	ResultApplied   = "applied"
	ResultNoop      = "noop"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
	ResultNotFound  = "not_found"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type adapterResolver interface {
	Resolve(channel string) (settlement.Adapter, error)
}

// Service reconciles callbacks, polls and expiries against the ledger.
type Service interface {
	Handle(ctx context.Context, reference string, outcome enums.CallbackOutcome, declared *enums.Channel) (*models.Order, error)
	HandleCallback(ctx context.Context, channel string, payload []byte, headers http.Header) (*Ack, error)
	Expire(ctx context.Context, orderID uuid.UUID, pendingFor time.Duration) (bool, error)
}

// Ack is returned to the provider after a callback is processed.
type Ack struct {
	OrderID           uuid.UUID           `json:"order_id"`
	PaymentStatus     enums.PaymentStatus `json:"payment_status"`
	Result            string              `json:"result"`
	Verified          bool                `json:"verified"`
	SignatureMismatch bool                `json:"signature_mismatch,omitempty"`
}

type Config struct {
	DedupeTTL time.Duration
}

type service struct {
	tx        txRunner
	orders    orders.Repository
	registry  adapterResolver
	guard     redis.Guard
	outbox    outboxPublisher
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
	dedupeTTL time.Duration
	now       func() time.Time
}

func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	registry adapterResolver,
	guard redis.Guard,
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
	ttl := cfg.DedupeTTL
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	return &service{
		tx:        tx,
		orders:    ordersRepo,
		registry:  registry,
		guard:     guard,
		outbox:    publisher,
		metrics:   m,
		logg:      logg,
		dedupeTTL: ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Handle applies outcome to the order holding reference. Replays and
// disallowed transitions return the current order without error.
func (s *service) Handle(ctx context.Context, reference string, outcome enums.CallbackOutcome, declared *enums.Channel) (*models.Order, error) {
	order, _, err := s.reconcile(ctx, reference, outcome, declared)
	return order, err
}

func (s *service) reconcile(ctx context.Context, reference string, outcome enums.CallbackOutcome, declared *enums.Channel) (*models.Order, bool, error) {
	if reference == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	if !outcome.IsValid() {
		return nil, false, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid outcome %q", outcome)
	}

	var (
		order   *models.Order
		applied bool
	)
	at := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		rows, err := repo.Finalize(ctx, reference, outcome, declared, at)
		if err != nil {
			return err
		}
		order, err = repo.FindByReference(ctx, reference)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no order for reference")
			}
			return err
		}
		if rows == 0 {
			return nil
		}
		applied = true
		return s.outbox.Emit(ctx, tx, transitionEvent(order, outcome))
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, false, typed
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reconcile payment")
	}

	logCtx := s.logg.WithChannel(s.logg.WithOrderID(ctx, order.ID.String()), order.ChannelName(), reference)
	if applied {
		s.metrics.IncTransition(order.ChannelName(), string(order.PaymentStatus))
		s.logg.Info(s.logg.WithField(logCtx, "payment_status", order.PaymentStatus), "payment.reconciled")
	} else {
		s.logg.Debug(s.logg.WithField(logCtx, "outcome", outcome), "payment.reconcile_noop")
	}
	return order, applied, nil
}

func transitionEvent(order *models.Order, outcome enums.CallbackOutcome) outbox.DomainEvent {
	channel := enums.Channel(order.ChannelName())
	event := outbox.DomainEvent{
		AggregateID: order.ID,
		Actor:       &outbox.ActorRef{Kind: outbox.ActorProvider, ID: string(channel)},
	}
	if outcome == enums.OutcomeSuccess {
		paidAt := time.Time{}
		if order.PaidAt != nil {
			paidAt = order.PaidAt.UTC()
		}
		event.EventType = enums.EventOrderPaid
		event.Data = payloads.OrderPaidEvent{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			Channel:          channel,
			ChannelReference: order.Reference(),
			TotalCents:       order.TotalCents,
			Currency:         order.Currency,
			PaidAt:           paidAt,
		}
		return event
	}
	event.EventType = enums.EventPaymentFailed
	event.Data = payloads.PaymentFailedEvent{
		OrderID:          order.ID,
		Channel:          channel,
		ChannelReference: order.Reference(),
		Reason:           "provider reported failure",
	}
	return event
}
