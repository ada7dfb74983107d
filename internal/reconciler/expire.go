package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/payloads"
)

// Expire fails and cancels an order that has been pending for pendingFor.
// It reports false when a callback settled the order first or a new
// initiation touched it since.
func (s *service) Expire(ctx context.Context, orderID uuid.UUID, pendingFor time.Duration) (bool, error) {
	cutoff := s.now().Add(-pendingFor)
	expired := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		rows, err := repo.ExpireStale(ctx, orderID, cutoff)
		if err != nil || rows == 0 {
			return err
		}
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		expired = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   enums.EventOrderExpired,
			AggregateID: order.ID,
			Actor:       &outbox.ActorRef{Kind: outbox.ActorSystem, ID: "stale_payment_expiry"},
			Data: payloads.OrderExpiredEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				PendingFor:  pendingFor.String(),
				ExpiredAt:   s.now(),
			},
		})
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire order")
	}
	if expired {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "payment.expired")
	}
	return expired, nil
}
