package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petalworks/petalworks-backend/api/controllers"
	"github.com/petalworks/petalworks-backend/api/middleware"
	"github.com/petalworks/petalworks-backend/internal/address"
	checkoutsvc "github.com/petalworks/petalworks-backend/internal/checkout"
	"github.com/petalworks/petalworks-backend/internal/notifications"
	"github.com/petalworks/petalworks-backend/internal/orders"
	"github.com/petalworks/petalworks-backend/internal/stats"
	"github.com/petalworks/petalworks-backend/pkg/config"
	"github.com/petalworks/petalworks-backend/pkg/db"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	"github.com/petalworks/petalworks-backend/pkg/logger"
	"github.com/petalworks/petalworks-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	PubSub   db.Pinger
	Registry prometheus.Gatherer

	Addresses     address.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Notifications notifications.Service
	Stats         stats.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.PubSub))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
			r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
		})

		r.With(middleware.RateLimit(checkoutPolicy, deps.Redis, logg)).
			Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleSeller.String(), logg))
			r.Get("/orders", controllers.SellerOrders(deps.Orders, logg))
			r.Get("/stats", controllers.SellerStats(deps.Stats, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrders(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
		})
		r.Get("/stats", controllers.AdminStats(deps.Stats, logg))
	})

	return r
}
