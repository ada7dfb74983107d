package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/controllers"
	cartcontrollers "github.com/TheBeardedParaTrooper/LiveBuyNow/api/controllers/cart"
	ordercontrollers "github.com/TheBeardedParaTrooper/LiveBuyNow/api/controllers/orders"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/middleware"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cardcheckout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cart"
	checkoutsvc "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/checkout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/payments"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/reconciler"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
	pkgredis "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/redis"
)

// Dependencies are the services and infrastructure handles the API mounts.
// CardCheckout may be nil when Stripe is not configured.
type Dependencies struct {
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Idempotency  pkgredis.IdempotencyStore
	RateLimiter  pkgredis.RateLimiter
	Gatherer     prometheus.Gatherer
	HTTPMetrics  *metrics.HTTPMetrics
	Cart         cart.Service
	Checkout     checkoutsvc.Service
	Orders       orders.Service
	Payments     payments.Service
	Reconciler   reconciler.Service
	CardCheckout cardcheckout.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Checkout.IdempotencyTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		// Provider-facing and order-id-scoped payment routes resolve no owner;
		// providers send their own Authorization schemes on callbacks.
		r.Route("/payments", func(r chi.Router) {
			r.Get("/channels", controllers.PaymentChannels(deps.Payments, logg))
			r.With(idempotent).Post("/initiate", controllers.InitiatePayment(deps.Payments, logg))
			r.Get("/status", controllers.PaymentStatus(deps.Payments, logg))
			r.With(middleware.CallbackRateLimit(deps.RateLimiter, cfg.Checkout.CallbackRateLimit, cfg.Checkout.CallbackRateWindow, logg)).
				Post("/callbacks/{channel}", controllers.SettlementCallback(deps.Reconciler, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.ResolveOwner(cfg.JWT, logg))
			r.Use(middleware.RequireOwner(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{lineId}", cartcontrollers.CartSetQuantity(deps.Cart, logg))
				r.Delete("/items/{lineId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
				r.With(middleware.RequirePrincipal(logg)).Post("/merge", cartcontrollers.CartMerge(deps.Cart, logg))
			})

			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			})

			r.Route("/card", func(r chi.Router) {
				r.With(idempotent).Post("/sessions", controllers.CardSession(deps.CardCheckout, logg))
				r.Post("/fulfill", controllers.CardFulfill(deps.CardCheckout, logg))
			})
		})
	})

	return r
}
