package reconciler

import (
	"context"
	"net/http"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/settlement"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/redis"
)

// HandleCallback parses a provider notification for the path channel and
// applies it. Signature mismatches are logged and applied. Identical
// deliveries inside the dedupe window short-circuit on a redis claim; the
// ledger guard still decides.
func (s *service) HandleCallback(ctx context.Context, channel string, payload []byte, headers http.Header) (*Ack, error) {
	result, err := s.parse(ctx, channel, payload, headers)
	if err != nil {
		s.metrics.IncCallback(channel, ResultRejected, false)
		return nil, err
	}

	declared := result.DeclaredChannel
	if declared == nil {
		if ch, err := enums.ParseChannel(channel); err == nil && ch.IsMobile() {
			declared = &ch
		}
	}

	metricChannel := channel
	if declared != nil {
		metricChannel = string(*declared)
	}

	key := redis.CallbackKey(result.Reference, string(result.Outcome))
	claimed := s.claim(ctx, key)
	if !claimed {
		ack, err := s.currentState(ctx, result)
		if err != nil {
			s.metrics.IncCallback(metricChannel, ResultNotFound, result.Verified)
			return nil, err
		}
		ack.Result = ResultDuplicate
		s.metrics.IncCallback(metricChannel, ResultDuplicate, result.Verified)
		return ack, nil
	}

	order, applied, err := s.reconcile(ctx, result.Reference, result.Outcome, declared)
	if err != nil {
		s.release(ctx, key)
		label := ResultRejected
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			label = ResultNotFound
		}
		s.metrics.IncCallback(metricChannel, label, result.Verified)
		return nil, err
	}

	ack := &Ack{
		OrderID:           order.ID,
		PaymentStatus:     order.PaymentStatus,
		Result:            ResultNoop,
		Verified:          result.Verified,
		SignatureMismatch: result.SignatureMismatch,
	}
	if applied {
		ack.Result = ResultApplied
	}
	s.metrics.IncCallback(metricChannel, ack.Result, result.Verified)
	return ack, nil
}

func (s *service) parse(ctx context.Context, channel string, payload []byte, headers http.Header) (*settlement.CallbackResult, error) {
	adapter, err := s.registry.Resolve(channel)
	if err != nil {
		s.logg.Debug(s.logg.WithChannel(ctx, channel, ""), "callback for unavailable channel, using generic parser")
		return settlement.ParseCallback(payload)
	}
	return adapter.HandleCallback(ctx, payload, headers)
}

// claim reports whether this delivery should be processed. Redis errors fail
// open to the ledger guard.
func (s *service) claim(ctx context.Context, key string) bool {
	if s.guard == nil {
		return true
	}
	ok, err := s.guard.SetNX(ctx, key, "1", s.dedupeTTL)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "callback dedupe unavailable")
		return true
	}
	return ok
}

func (s *service) release(ctx context.Context, key string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Del(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "callback dedupe release failed")
	}
}

func (s *service) currentState(ctx context.Context, result *settlement.CallbackResult) (*Ack, error) {
	order, err := s.orders.FindByReference(ctx, result.Reference)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return &Ack{
		OrderID:           order.ID,
		PaymentStatus:     order.PaymentStatus,
		Verified:          result.Verified,
		SignatureMismatch: result.SignatureMismatch,
	}, nil
}
