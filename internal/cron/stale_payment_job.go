package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
)

const (
	stalePaymentTTL       = 48 * time.Hour
	stalePaymentBatchSize = 200
)

// StalePaymentJobParams configure the job that expires abandoned mobile payments.
type StalePaymentJobParams struct {
	Logger     *logger.Logger
	Orders     stalePendingReader
	Expirer    orderExpirer
	Metrics    *metrics.PaymentMetrics
	PendingFor time.Duration
	BatchSize  int
}

type stalePendingReader interface {
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderExpirer interface {
	Expire(ctx context.Context, orderID uuid.UUID, pendingFor time.Duration) (bool, error)
}

func NewStalePaymentJob(params StalePaymentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	pendingFor := params.PendingFor
	if pendingFor <= 0 {
		pendingFor = stalePaymentTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = stalePaymentBatchSize
	}
	return &stalePaymentJob{
		logg:       params.Logger,
		orders:     params.Orders,
		expirer:    params.Expirer,
		metrics:    params.Metrics,
		pendingFor: pendingFor,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type stalePaymentJob struct {
	logg       *logger.Logger
	orders     stalePendingReader
	expirer    orderExpirer
	metrics    *metrics.PaymentMetrics
	pendingFor time.Duration
	batch      int
	now        func() time.Time
}

func (j *stalePaymentJob) Name() string { return "stale-payment-expiry" }

// Run expires each stale order in its own transaction so one failure does not
// hold back the rest of the batch.
func (j *stalePaymentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.pendingFor)
	stale, err := j.orders.FindStalePending(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs error
	expired := 0
	for _, order := range stale {
		ok, err := j.expirer.Expire(ctx, order.ID, j.pendingFor)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		if ok {
			expired++
		}
	}
	j.metrics.AddExpired(expired)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(stale),
		"expired":    expired,
	})
	j.logg.Info(logCtx, "stale payment expiry complete")
	return errs
}
