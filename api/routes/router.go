package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vardaanagro/agrofarm-backend/api/controllers"
	"github.com/vardaanagro/agrofarm-backend/api/middleware"
	"github.com/vardaanagro/agrofarm-backend/internal/auth"
	"github.com/vardaanagro/agrofarm-backend/internal/cart"
	"github.com/vardaanagro/agrofarm-backend/internal/categories"
	"github.com/vardaanagro/agrofarm-backend/internal/orders"
	product "github.com/vardaanagro/agrofarm-backend/internal/products"
	"github.com/vardaanagro/agrofarm-backend/internal/reviews"
	"github.com/vardaanagro/agrofarm-backend/pkg/config"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/metrics"
)

const (
	orderIdempotencyTTL = 24 * time.Hour
	compressionLevel    = 5
)

// RedisStore is the subset of the redis client the HTTP layer relies on.
type RedisStore interface {
	controllers.Pinger
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// Dependencies carries everything NewRouter mounts.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Users    middleware.ActiveUserChecker
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Auth       auth.Service
	Categories categories.Service
	Products   product.Service
	Cart       cart.Service
	Orders     orders.Service
	Reviews    reviews.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.SecurityHeaders(),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.CORS),
		chimiddleware.Compress(compressionLevel),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(cfg.JWT, deps.Users, logg)
	adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Redis, cfg.RateLimit.GlobalWindow, cfg.RateLimit.GlobalLimit, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/logout-all", controllers.AuthLogoutAll(deps.Auth, logg))
				r.Post("/change-password", controllers.AuthChangePassword(deps.Auth, logg))
				r.Get("/profile", controllers.AuthProfile(deps.Auth, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoriesList(deps.Categories, logg))
			r.Get("/{id}", controllers.CategoryGet(deps.Categories, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.Post("/", controllers.CategoryCreate(deps.Categories, logg))
				r.Put("/{id}", controllers.CategoryUpdate(deps.Categories, logg))
				r.Delete("/{id}", controllers.CategoryDelete(deps.Categories, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Products, logg))
			r.Get("/featured", controllers.ProductsFeatured(deps.Products, logg))
			r.Get("/search", controllers.ProductsSearch(deps.Products, logg))
			r.Get("/{id}", controllers.ProductGet(deps.Products, logg))
			r.Get("/{id}/related", controllers.ProductsRelated(deps.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.Post("/", controllers.ProductCreate(deps.Products, logg))
				r.Put("/{id}", controllers.ProductUpdate(deps.Products, logg))
				r.Delete("/{id}", controllers.ProductDelete(deps.Products, logg))
				r.Patch("/{id}/stock", controllers.ProductUpdateStock(deps.Products, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/add", controllers.CartAdd(deps.Cart, logg))
			r.Put("/item/{productId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/item/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/clear", controllers.CartClear(deps.Cart, logg))
			r.Get("/validate", controllers.CartValidate(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticated)
			r.With(middleware.Idempotency(deps.Redis, orderIdempotencyTTL, logg)).Post("/", controllers.OrderCreate(deps.Orders, logg))
			r.Get("/my-orders", controllers.OrdersMine(deps.Orders, logg))
			r.Get("/{id}", controllers.OrderGet(deps.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", controllers.OrdersAll(deps.Orders, logg))
				r.Patch("/{id}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/product/{productId}", controllers.ReviewsForProduct(deps.Reviews, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/product/{productId}", controllers.ReviewCreate(deps.Reviews, logg))
				r.Put("/{id}", controllers.ReviewUpdate(deps.Reviews, logg))
				r.Delete("/{id}", controllers.ReviewDelete(deps.Reviews, logg))
			})
		})
	})

	r.NotFound(controllers.RouteNotFound(logg))

	return r
}
