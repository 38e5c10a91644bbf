package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/miguelsandoval/storefront-backend/api/controllers"
	cartcontrollers "github.com/miguelsandoval/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/miguelsandoval/storefront-backend/api/controllers/orders"
	"github.com/miguelsandoval/storefront-backend/api/middleware"
	cartsvc "github.com/miguelsandoval/storefront-backend/internal/cart"
	checkoutsvc "github.com/miguelsandoval/storefront-backend/internal/checkout"
	orderssvc "github.com/miguelsandoval/storefront-backend/internal/orders"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
)

type cartSweeper interface {
	SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
}

// Deps bundles everything the HTTP surface needs. Limiter may be nil when
// throttling is disabled.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   orderssvc.Service
	Sweeper  cartSweeper
	Limiter  middleware.RateLimiter
	DB       controllers.Pinger
	Redis    controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))
		r.Use(middleware.RateLimit(deps.Limiter, cfg.RateLimit, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(deps.Cart, logg))
			r.Delete("/", cartcontrollers.Clear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.AddItem(deps.Cart, logg))
			r.Put("/items/{itemId}", cartcontrollers.UpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.RemoveItem(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Post("/", ordercontrollers.Create(deps.Checkout, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/number/{orderNumber}", ordercontrollers.GetByNumber(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Get(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminSetOrderStatus(deps.Orders, logg))
		})
		r.Post("/carts/sweep", controllers.SweepAbandonedCarts(deps.Sweeper, cfg.Sweeper.Cutoff(), logg))
	})

	return r
}
