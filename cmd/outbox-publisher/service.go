package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond

	reasonNonRetryable = "non_retryable"
	reasonMaxAttempts  = "max_attempts"
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pinger interface {
	Ping(context.Context) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type ServiceParams struct {
	Outbox     config.OutboxConfig
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pinger
	Repository outboxRepository
	Registry   registryResolver
	Publishers publisherFactory
	Metrics    *metrics.OutboxMetrics
}

// Service relays outbox_events rows to Pub/Sub. Events are keyed by order id
// so subscribers see each order's lifecycle in write order.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	pubsub       pinger
	repo         outboxRepository
	registry     registryResolver
	publishers   publisherFactory
	metrics      *metrics.OutboxMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.Publishers == nil:
		return nil, errors.New("publisher factory is required")
	}

	s := &Service{
		logg:         params.Logger,
		db:           params.DB,
		pubsub:       params.PubSub,
		repo:         params.Repository,
		registry:     params.Registry,
		publishers:   params.Publishers,
		metrics:      params.Metrics,
		batchSize:    params.Outbox.BatchSize,
		maxAttempts:  params.Outbox.MaxAttempts,
		pollInterval: time.Duration(params.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	return s, nil
}

func (s *Service) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{"database": s.db.Ping, "pubsub": s.pubsub.Ping} {
		if err := ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	backoff := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		stats, err := s.processBatch(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
		case stats.retrying > 0:
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
		case stats.settled() > 0:
			backoff = s.pollInterval
			continue
		default:
			backoff = s.pollInterval
		}

		if err := sleep(ctx, withJitter(backoff)); err != nil {
			return err
		}
	}
}

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetrying
	outcomeParked
)

type batchStats struct {
	published int
	retrying  int
	parked    int
	deferred  int
}

func (b batchStats) settled() int {
	return b.published + b.parked
}

// processBatch publishes one claimed batch inside a transaction. Once an
// order's event fails with a retryable error, its later events in the batch
// are left untouched for the next pass. Parked events do not hold others back.
func (s *Service) processBatch(ctx context.Context) (batchStats, error) {
	var stats batchStats
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}

		blocked := map[uuid.UUID]bool{}
		for _, event := range events {
			if blocked[event.AggregateID] {
				stats.deferred++
				s.metrics.ObserveDeferred()
				continue
			}
			result, err := s.relay(ctx, tx, event)
			if err != nil {
				return err
			}
			switch result {
			case outcomePublished:
				stats.published++
			case outcomeRetrying:
				stats.retrying++
				blocked[event.AggregateID] = true
			case outcomeParked:
				stats.parked++
			}
		}
		return nil
	})
	if err != nil {
		return batchStats{}, err
	}
	return stats, nil
}

// relay publishes a single event and records the outcome on its row.
func (s *Service) relay(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	fields := eventFields(event)
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeParked, s.park(ctx, tx, event, reasonNonRetryable, err, fields)
	}
	fields["topic"] = resolved.Descriptor.Topic
	fields["event_id"] = resolved.Envelope.EventID

	pubErr := s.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return outcomePublished, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.metrics.ObservePublished(string(event.EventType), event.CreatedAt)
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return outcomePublished, nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(pubErr, &nonRetry) {
		return outcomeParked, s.park(ctx, tx, event, reasonNonRetryable, pubErr, fields)
	}
	attempt := event.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		return outcomeParked, s.park(ctx, tx, event, reasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", pubErr), fields)
	}

	s.metrics.ObserveFailure(string(event.EventType), false)
	warnCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", pubErr.Error())
	s.logg.Warn(warnCtx, "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return outcomeRetrying, fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return outcomeRetrying, nil
}

// park marks an event terminal. The row keeps its payload and last_error so
// it can be replayed by hand.
func (s *Service) park(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason string, cause error, fields map[string]any) error {
	fields["terminal_reason"] = reason
	warnCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", cause.Error())
	s.logg.Warn(warnCtx, "outbox event will not be retried")
	s.metrics.ObserveFailure(string(event.EventType), true)
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publishers(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := buildMessage(event, resolved)
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	if _, err := result.Get(publishCtx); err != nil {
		pub.ResumePublish(msg.OrderingKey)
		return err
	}
	return nil
}

func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	if resolved.Envelope.Version > 0 {
		attrs["envelope_version"] = strconv.Itoa(resolved.Envelope.Version)
	}
	return &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  attrs,
		OrderingKey: event.AggregateID.String(),
	}
}

func eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"order_id":       event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	if next := current * 2; next < max {
		return next
	}
	return max
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
