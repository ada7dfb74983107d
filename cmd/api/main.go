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

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/routes"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cardcheckout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cart"
	checkoutsvc "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/checkout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/payments"
	product "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/products"
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
	pkgstripe "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := openDatabase(context.Background(), cfg, logg)
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
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	currency := cfg.App.CurrencyCode()
	conn := dbClient.DB()
	ordersRepo := orders.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	publisher := outbox.NewService(outbox.NewRepository(conn), logg)
	adapters := settlement.NewRegistryFromConfig(cfg.Mobile, currency, logg)

	cartService, err := cart.NewService(cartRepo, productRepo, dbClient, currency, logg)
	requireResource(context.Background(), logg, "cart service", err)

	checkoutService, err := checkoutsvc.NewService(dbClient, cartRepo, ordersRepo, productRepo, publisher, currency, logg)
	requireResource(context.Background(), logg, "checkout service", err)

	ordersService, err := orders.NewService(ordersRepo, cfg.Checkout.OrderHistoryPageLimit)
	requireResource(context.Background(), logg, "orders service", err)

	paymentsService, err := payments.NewService(dbClient, ordersRepo, adapters, publisher, paymentMetrics, logg, payments.Config{
		InitiateTimeout: cfg.Checkout.InitiateTimeout,
	})
	requireResource(context.Background(), logg, "payments service", err)

	reconcilerService, err := reconciler.NewService(dbClient, ordersRepo, adapters, redisClient, publisher, paymentMetrics, logg, reconciler.Config{
		DedupeTTL: cfg.Checkout.CallbackDedupeTTL,
	})
	requireResource(context.Background(), logg, "reconciler", err)

	deps := routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Gatherer:    prometheus.DefaultGatherer,
		HTTPMetrics: httpMetrics,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      ordersService,
		Payments:    paymentsService,
		Reconciler:  reconcilerService,
	}

	if cfg.Stripe.Enabled() {
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		requireResource(context.Background(), logg, "stripe", err)
		cardService, err := cardcheckout.NewService(cardcheckout.NewSessionClient(stripeClient), productRepo, dbClient, ordersRepo, publisher, paymentMetrics, logg, cardcheckout.Config{
			BaseURL:  cfg.App.BaseURL,
			Currency: currency,
			Timeout:  cfg.Checkout.InitiateTimeout,
		})
		requireResource(context.Background(), logg, "card checkout", err)
		deps.CardCheckout = cardService
	} else {
		logg.Warn(context.Background(), "stripe not configured, card routes will report unavailable")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"channels": adapters.Channels(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func openDatabase(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*db.Client, error) {
	if !cfg.FeatureFlags.UseSQLite {
		return db.New(ctx, cfg.DB, db.Options{}, logg)
	}
	client, err := db.New(ctx, cfg.DB, db.Options{SQLitePath: cfg.FeatureFlags.SQLitePath}, logg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSQLiteSchema(client.DB()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
