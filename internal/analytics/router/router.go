package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/analytics/types"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/registry"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by the router.
type Writer interface {
	InsertPaymentEvent(ctx context.Context, row types.PaymentEventRow) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error)
}

// Router decodes each envelope with the shared payload registry and writes
// the resulting payment_events row.
type Router struct {
	decoder   payloadDecoder
	supported map[enums.OutboxEventType]bool
	writer    Writer
	logg      *logger.Logger
}

func NewRouter(writer Writer, decoders *registry.DecoderRegistry, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if decoders == nil {
		return nil, errors.New("decoder registry is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	supported := make(map[enums.OutboxEventType]bool)
	for eventType := range registry.PayloadFactories() {
		supported[eventType] = true
	}
	return &Router{
		decoder:   decoders,
		supported: supported,
		writer:    writer,
		logg:      logg,
	}, nil
}

// Handle decodes the envelope payload and inserts one row.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	if !r.supported[envelope.EventType] {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	version := envelope.Version
	if version <= 0 {
		version = 1
	}
	decoded, err := r.decoder.Decode(envelope.EventType, version, envelope.Payload)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	row, err := BuildRow(envelope, decoded)
	if err != nil {
		return err
	}
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"order_id":   row.OrderID,
	})
	if err := r.writer.InsertPaymentEvent(logCtx, row); err != nil {
		r.logg.Error(logCtx, "failed to insert payment event row", err)
		return err
	}
	r.logg.Info(logCtx, "payment event row inserted")
	return nil
}
