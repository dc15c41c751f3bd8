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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/application"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/cache"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/config"
	rentalEvents "github.com/jush-ua/Kumila-Rentals-sub000/internal/events"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/handler"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/auth"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/database"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/health"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/kafka"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/logger"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/metrics"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/middleware"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/repository"
)

const serviceName = "service-rental"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.Duration("tx_timeout", cfg.TxTimeout),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig.DSN(), database.PoolConfig{
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.ItemModel{}, &repository.ReservationModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Connect to Redis. The catalog works without it, only slower.
	var itemCache application.ItemCache
	redisClient, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, item cache disabled", zap.Error(err))
	} else {
		defer func() { _ = redisClient.Close() }()
		itemCache = cache.NewItemCache(redisClient, cfg.ItemCacheTTL)
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reservationMetrics := metrics.NewReservationMetrics(registry)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	reservationRepo := repository.NewGormReservationRepository(db)
	itemRepo := repository.NewGormItemRepository(db)

	// Initialize application services
	reservationService := application.NewReservationService(
		reservationRepo,
		kafkaProducer,
		reservationMetrics,
		cfg.TxTimeout,
		log,
	)
	itemService := application.NewItemService(itemRepo, itemCache, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "rental-service"
	paymentConsumer := rentalEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		reservationService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, serviceName)
	if redisClient != nil {
		healthHandler.WithDependency("redis", redisClient)
	}
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", metrics.Handler(registry))

	// Register routes
	handler.NewItemHandler(itemService, reservationService).RegisterRoutes(&router.RouterGroup)
	handler.NewReservationHandler(reservationService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(reservationService, itemService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
