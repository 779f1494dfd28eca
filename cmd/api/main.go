package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vardaanagro/agrofarm-backend/api/routes"
	"github.com/vardaanagro/agrofarm-backend/internal/auth"
	"github.com/vardaanagro/agrofarm-backend/internal/cart"
	"github.com/vardaanagro/agrofarm-backend/internal/categories"
	"github.com/vardaanagro/agrofarm-backend/internal/orders"
	product "github.com/vardaanagro/agrofarm-backend/internal/products"
	"github.com/vardaanagro/agrofarm-backend/internal/reviews"
	"github.com/vardaanagro/agrofarm-backend/internal/users"
	"github.com/vardaanagro/agrofarm-backend/pkg/config"
	"github.com/vardaanagro/agrofarm-backend/pkg/db"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/metrics"
	"github.com/vardaanagro/agrofarm-backend/pkg/migrate"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox"
	"github.com/vardaanagro/agrofarm-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	shopMetrics := metrics.NewShopMetrics(reg)

	deps, err := buildServices(cfg, logg, dbClient, shopMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}
	deps.Config = cfg
	deps.Logger = logg
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Users = users.NewRepository(dbClient.DB())
	deps.Gatherer = reg
	deps.Metrics = metrics.NewHTTPMetrics(reg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, shopMetrics *metrics.ShopMetrics) (routes.Dependencies, error) {
	var deps routes.Dependencies
	gdb := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return deps, err
	}

	categoryService, err := categories.NewService(categories.NewRepository(gdb), dbClient)
	if err != nil {
		return deps, err
	}

	cartRepo := cart.NewRepository(gdb)
	cartService, err := cart.NewService(cartRepo, dbClient, shopMetrics, logg)
	if err != nil {
		return deps, err
	}

	productService, err := product.NewService(product.NewRepository(gdb), dbClient, cartService, emitter, logg)
	if err != nil {
		return deps, err
	}

	orderService, err := orders.NewService(orders.NewRepository(gdb), cartRepo, dbClient, emitter, shopMetrics, logg)
	if err != nil {
		return deps, err
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(gdb), dbClient, emitter, shopMetrics, logg)
	if err != nil {
		return deps, err
	}

	deps.Auth = authService
	deps.Categories = categoryService
	deps.Products = productService
	deps.Cart = cartService
	deps.Orders = orderService
	deps.Reviews = reviewService
	return deps, nil
}
