package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cron"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/reconciler"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/settlement"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/instance"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/migrate"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, db.Options{}, logg)
	requireResource(context.Background(), logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	requireResource(context.Background(), logg, "dev migrations", migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(context.Background(), logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)
	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	conn := dbClient.DB()
	ordersRepo := orders.NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)

	// Expiry goes through the reconciler's pending-only guard; no adapter is
	// called, so the registry only needs to exist.
	expirer, err := reconciler.NewService(dbClient, ordersRepo, settlement.NewRegistry(), redisClient, outbox.NewService(outboxRepo, logg), paymentMetrics, logg, reconciler.Config{
		DedupeTTL: cfg.Checkout.CallbackDedupeTTL,
	})
	requireResource(context.Background(), logg, "reconciler", err)

	staleJob, err := cron.NewStalePaymentJob(cron.StalePaymentJobParams{
		Logger:     logg,
		Orders:     ordersRepo,
		Expirer:    expirer,
		Metrics:    paymentMetrics,
		PendingFor: cfg.Cron.StalePaymentTTL,
	})
	requireResource(context.Background(), logg, "stale payment job", err)

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetention,
	})
	requireResource(context.Background(), logg, "outbox retention job", err)

	registry, err := cron.NewRegistry(staleJob, retentionJob)
	requireResource(context.Background(), logg, "cron registry", err)

	lock, err := cron.NewRedisLock(redisClient, lockName, cfg.Cron.LockTTL)
	requireResource(context.Background(), logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    jobMetrics,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.LockTTL,
	})
	requireResource(context.Background(), logg, "cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Cron.Interval.String(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		requireResource(ctx, logg, "cron cycle", service.RunOnce(ctx))
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
