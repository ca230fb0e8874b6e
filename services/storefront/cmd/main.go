package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kay-kewl/shop-platform/internal/cache"
	"github.com/kay-kewl/shop-platform/internal/config"
	"github.com/kay-kewl/shop-platform/internal/database"
	"github.com/kay-kewl/shop-platform/internal/idempotency"
	"github.com/kay-kewl/shop-platform/internal/logging"
	"github.com/kay-kewl/shop-platform/internal/rabbitmq"
	"github.com/kay-kewl/shop-platform/internal/telemetry"
	"github.com/kay-kewl/shop-platform/services/storefront/internal/handler"
	apimiddleware "github.com/kay-kewl/shop-platform/services/storefront/internal/middleware"
	"github.com/kay-kewl/shop-platform/services/storefront/internal/service"
	"github.com/kay-kewl/shop-platform/services/storefront/internal/storage"
	"github.com/kay-kewl/shop-platform/services/storefront/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	logger := logging.New()

	logger.Info("Storefront is starting up...")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdown, err := telemetry.InitTracerProvider(context.Background(), "storefront", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("Failed to initialize tracer provider", "error", err)
		os.Exit(1)
	}
	defer shutdown()

	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		logger.Info("Starting metrics server", "port", cfg.MetricsPort)
		if err := http.ListenAndServe(":"+cfg.MetricsPort, metricsMux); err != nil {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	if err := database.RunMigrations(cfg.MigrationsURL, cfg.PostgresURL, logger); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	dbPool, err := database.NewConnection(context.Background(), cfg.PostgresURL, logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisStore, err := cache.NewRedisStore(context.Background(), cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()

	rabbitManager := rabbitmq.NewConnectionManager(cfg.RabbitMQURL, logger)
	defer rabbitManager.Close()

	logger.Info("Waiting for RabbitMQ connection...")
	rabbitManager.WaitUntilReady()

	setupCh, err := rabbitManager.GetChannel()
	if err != nil {
		logger.Error("Failed to get channel for topology setup", "error", err)
		os.Exit(1)
	}
	if err := setupRabbitMQTopology(setupCh); err != nil {
		logger.Error("Failed to setup RabbitMQ topology", "error", err)
		os.Exit(1)
	}
	setupCh.Close()
	logger.Info("RabbitMQ topology setup successfully")

	store := storage.New(dbPool)
	members := service.NewMembers(cfg.JWTSecret, cfg.TokenTTL, store, store)
	products := service.NewProducts(store, store)

	guard := idempotency.New(redisStore, logger, idempotency.Config{
		TTL:          cfg.IdempotencyTTL,
		KeyPrefix:    cfg.IdempotencyKeyPrefix,
		PathPrefixes: cfg.IdempotencyPaths,
		Methods:      cfg.IdempotencyMethods,
		QueueSize:    cfg.IdempotencyQueueSize,
		Workers:      cfg.IdempotencyWorkers,
	})
	admin := idempotency.NewAdmin(redisStore, cfg.IdempotencyKeyPrefix, logger)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go guard.Start(workerCtx)

	outboxWorker := worker.NewOutboxWorker(dbPool, rabbitManager, logger, 10*time.Second)
	go outboxWorker.Start(workerCtx)

	janitor := worker.NewCacheJanitor(admin, logger, 1*time.Hour)
	go janitor.Start(workerCtx)

	h := handler.New(members, products, admin, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/members", h.CreateMember)
	mux.HandleFunc("POST /api/v1/login", h.Login)
	mux.HandleFunc("POST /api/v1/products", h.CreateProduct)
	mux.HandleFunc("GET /api/v1/products", h.ListProducts)
	mux.HandleFunc("DELETE /internal/idempotency/{key}", h.DeleteIdempotencyKey)
	mux.HandleFunc("POST /internal/idempotency/cleanup", h.CleanupIdempotencyCache)

	var handlerWithMiddleware http.Handler = mux
	handlerWithMiddleware = otelhttp.NewHandler(handlerWithMiddleware, "http.server")
	handlerWithMiddleware = guard.Middleware(handlerWithMiddleware)
	handlerWithMiddleware = apimiddleware.Metrics(handlerWithMiddleware)
	handlerWithMiddleware = apimiddleware.RequestID(handlerWithMiddleware)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      handlerWithMiddleware,
		IdleTimeout:  300 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "port", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

func setupRabbitMQTopology(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		"shop_events",
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
