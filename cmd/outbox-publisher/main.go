package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/instance"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/migrate"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/registry"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/pubsub"
)

// metricsAddrEnv optionally exposes /metrics for the relay.
const metricsAddrEnv = "LIVEBUYNOW_OUTBOX_METRICS_ADDR"

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, pubsub.Options{}, logg)
	requireResource(context.Background(), logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	requireResource(context.Background(), logg, "event registry", err)

	publishers := newTopicPublishers(pubsubClient.Publisher)
	defer publishers.stop()

	service, err := NewService(ServiceParams{
		Outbox:     cfg.Outbox,
		Logger:     logg,
		DB:         dbClient,
		PubSub:     pubsubClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   eventRegistry,
		Publishers: publishers.get,
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	requireResource(context.Background(), logg, "outbox publisher", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"instance":    instance.GetID(),
		"topic":       cfg.PubSub.PaymentsTopic,
		"maxAttempts": cfg.Outbox.MaxAttempts,
	})

	if addr := os.Getenv(metricsAddrEnv); addr != "" {
		go serveMetrics(ctx, logg, addr)
	}

	logg.Info(ctx, "starting outbox publisher")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server failed", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
