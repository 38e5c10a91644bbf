package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/miguelsandoval/storefront-backend/api/routes"
	cartsvc "github.com/miguelsandoval/storefront-backend/internal/cart"
	"github.com/miguelsandoval/storefront-backend/internal/catalog"
	checkoutsvc "github.com/miguelsandoval/storefront-backend/internal/checkout"
	"github.com/miguelsandoval/storefront-backend/internal/inventory"
	orderssvc "github.com/miguelsandoval/storefront-backend/internal/orders"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	"github.com/miguelsandoval/storefront-backend/pkg/db"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
	"github.com/miguelsandoval/storefront-backend/pkg/migrate"
	"github.com/miguelsandoval/storefront-backend/pkg/redis"
)

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

	ledger := inventory.NewLedger(logg)
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	ordersRepo := orderssvc.NewRepository(dbClient.DB())

	cartService, err := cartsvc.NewService(cartRepo, dbClient, catalogRepo, ledger)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	pricing, err := checkoutsvc.PricingFromConfig(cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "invalid checkout pricing config", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(dbClient, cartRepo, ordersRepo, ledger, pricing, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orderssvc.NewService(dbClient, ordersRepo, ledger, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   ordersService,
			Sweeper:  cartRepo,
			Limiter:  redisClient,
			DB:       dbClient,
			Redis:    redisClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
