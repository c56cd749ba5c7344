package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/cache"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/config"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/database/inmemory"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/database/postgres"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/logger"
	httpHandler "github.com/wichananm65/pet-shop-checkout/internal/interface/http/handler"
	"github.com/wichananm65/pet-shop-checkout/internal/interface/http/router"
	"github.com/wichananm65/pet-shop-checkout/internal/interface/presenter"
	"github.com/wichananm65/pet-shop-checkout/internal/pricing"
	"github.com/wichananm65/pet-shop-checkout/internal/usecase"
)

// main wires dependencies and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := mustOpenStore(ctx, cfg, log)
	defer closeStore()

	cartCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	engine := pricing.NewEngine(cfg.Pricing)
	cartUsecase := usecase.NewCartService(store, engine, cartCache, log)
	checkoutUsecase := usecase.NewCheckoutService(store, engine, cartUsecase, log)
	orderUsecase := usecase.NewOrderService(store.Orders())
	productUsecase := usecase.NewProductService(store.Products())

	orderPresenter := presenter.NewOrderPresenter()
	app := router.New(router.Handlers{
		Products: httpHandler.NewProductHandler(productUsecase, presenter.NewProductPresenter(), log),
		Carts:    httpHandler.NewCartHandler(cartUsecase, checkoutUsecase, presenter.NewCartPresenter(), orderPresenter, log),
		Orders:   httpHandler.NewOrderHandler(orderUsecase, orderPresenter, log),
	}, cfg.JWTSecret, log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

// mustOpenStore uses Postgres when DATABASE_URL is set and a seeded
// in-memory catalog otherwise.
func mustOpenStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (repository.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is not set, using the in-memory store")
		return inmemory.NewStore(seedProducts()), func() {}
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}
	return postgres.NewStore(db), closer(db, log)
}

func closer(db *sql.DB, log zerolog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
}

func openCache(ctx context.Context, cfg config.Config, log zerolog.Logger) (cache.CartCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	// an unreachable redis only costs cache hits
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	return cache.NewRedisCache(client, cfg.CartCacheTTL), func() { _ = client.Close() }
}
