package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cozanostra7/shopstore/internal/cache"
	"github.com/cozanostra7/shopstore/internal/cart"
	"github.com/cozanostra7/shopstore/internal/catalog"
	"github.com/cozanostra7/shopstore/internal/checkout"
	"github.com/cozanostra7/shopstore/internal/config"
	"github.com/cozanostra7/shopstore/internal/customer"
	"github.com/cozanostra7/shopstore/internal/db"
	"github.com/cozanostra7/shopstore/internal/events"
	httpserver "github.com/cozanostra7/shopstore/internal/http"
	"github.com/cozanostra7/shopstore/internal/order"
	"github.com/cozanostra7/shopstore/internal/review"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "shopstore")

	if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	catalogRepo := catalog.NewRepository(database)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		catalogRepo = cache.NewCachedRepository(catalogRepo, cache.NewRedisCache(client), logger)
		logger.Info("product cache enabled", "addr", cfg.RedisAddr)
	}

	cartRepo := cart.NewRepository(database)
	customerRepo := customer.NewRepository(database)
	orderRepo := order.NewRepository(database, cfg.CheckoutLockTimeout)
	reviewRepo := review.NewRepository(database)

	checkoutSvc := checkout.NewService(orderRepo, logger)
	checkoutSvc.OnOrderPlaced(func(ctx context.Context, o *order.Order) error {
		logger.Info("order placed", "orderId", o.ID, "customerId", o.CustomerID, "total", o.Total)
		return nil
	})

	if cfg.RabbitURL != "" {
		conn, err := events.DialRabbit(cfg.RabbitURL)
		if err != nil {
			logger.Error("rabbitmq connection failed", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn)
		if err != nil {
			logger.Error("rabbitmq publisher setup failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()

		checkoutSvc.OnOrderPlaced(publisher.PublishOrderPlaced)
		logger.Info("order placed events enabled", "queue", events.OrderPlacedQueue)
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Catalog:   catalogRepo,
		Carts:     cartRepo,
		Orders:    orderRepo,
		Customers: customerRepo,
		Reviews:   reviewRepo,
		Checkout:  checkoutSvc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
