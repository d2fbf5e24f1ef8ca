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

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/lock"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront-service stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	pool, err := db.NewPool(ctx, cfg.CatalogDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	// --- Locking ---
	var locker lock.Locker = lock.NewLocalLocker(cfg.LockWait)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait, logger)
		logger.Info("using redis locks", zap.Duration("ttl", cfg.LockTTL))
	}

	// --- AMQP ---
	var publisher order.EventPublisher = events.NopPublisher{}
	if cfg.RabbitURL != "" {
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			return fmt.Errorf("rabbitmq dial: %w", err)
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn, events.NewSequenceRepository(sqlDB), logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Warn("RABBITMQ_URL not set, order events are not published")
	}

	// --- Services ---
	products := catalog.NewPostgresCatalog(pool)
	cartRepo := cart.NewPostgresRepository(sqlDB)
	carts := cart.NewService(cartRepo, products, locker, logger)

	deps := order.Deps{
		Carts:  carts,
		Clear:  cartRepo,
		Orders: order.NewPostgresRepository(sqlDB),
		Stock:  products,
		Tx:     db.NewTxRunner(sqlDB),
		Locker: locker,
		Events: publisher,
		Logger: logger,
	}

	// --- HTTP ---
	h := httpapi.NewHandler(carts, order.NewAssembler(deps), order.NewLifecycle(deps), logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(h, logger, cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}
