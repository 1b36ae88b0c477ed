package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/di"
	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/internal/service"
	"github.com/plannivo/booking-engine/internal/undo"
	"github.com/plannivo/booking-engine/pkg/config"
	"github.com/plannivo/booking-engine/pkg/database"
	"github.com/plannivo/booking-engine/pkg/logger"
	"github.com/plannivo/booking-engine/pkg/middleware"
	pkgredis "github.com/plannivo/booking-engine/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting booking engine...")

	ctx := context.Background()

	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MinIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: time.Second,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed, falling back to in-process stores: %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info("Redis connected")
	}

	var eventPublisher service.EventPublisher
	eventPublisher, err = service.NewKafkaEventPublisher(service.KafkaPublisherConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
		Topic:    cfg.Kafka.Topic,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		eventPublisher = service.NewNoOpEventPublisher()
	} else {
		appLog.Info("Kafka event publisher connected")
	}

	// An undo token must survive an instance restart within its TTL, so the
	// Redis store is preferred whenever Redis is reachable.
	var undoStore undo.Store
	if redisClient != nil {
		undoStore = undo.NewRedisStore(redisClient)
	} else {
		undoStore = undo.NewMemoryStore(30 * time.Second)
	}

	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		EventPublisher: eventPublisher,
		UndoStore:      undoStore,
		UndoTokenTTL:   cfg.Booking.UndoTokenTTL,
		Version:        cfg.App.Version,
		ServiceConfig: service.Config{
			DefaultCurrency: cfg.Booking.DefaultCurrency,
			SuggestionCount: cfg.Booking.SuggestionCount,
			WorkingWindow: domain.WorkingWindow{
				Start: decimal.NewFromFloat(cfg.Booking.WorkingDayStart),
				End:   decimal.NewFromFloat(cfg.Booking.WorkingDayEnd),
			},
		},
	})
	defer container.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	rateLimitCfg.RequestsPerSecond = cfg.Booking.RateLimitPerSecond
	rateLimitCfg.BurstSize = cfg.Booking.RateLimitBurst

	var limiter middleware.Limiter
	if redisClient != nil {
		limiter = middleware.NewRedisRateLimiter(redisClient, rateLimitCfg)
	} else {
		limiter = middleware.NewLocalRateLimiter(rateLimitCfg)
	}
	defer limiter.Stop()

	authCfg := middleware.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ActorIdentity(authCfg))
	v1.Use(middleware.RateLimit(limiter, rateLimitCfg))
	{
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", container.BookingHandler.Create)
			bookings.POST("/group", container.BookingHandler.CreateGroup)
			bookings.POST("/calendar", container.BookingHandler.CreateFromCalendar)
			bookings.GET("", container.BookingHandler.List)
			bookings.GET("/:id", container.BookingHandler.Get)
			bookings.PUT("/:id", container.BookingHandler.Update)
			bookings.PATCH("/:id/status", container.BookingHandler.UpdateStatus)
			bookings.POST("/:id/cancel", container.BookingHandler.Cancel)
			bookings.DELETE("/:id", container.BookingHandler.Delete)
			bookings.POST("/:id/restore", container.BookingHandler.Restore)
			bookings.POST("/restore-latest", container.BookingHandler.RestoreLatest)

			bookings.POST("/swap", container.SwapHandler.Swap)
			bookings.POST("/swap-with-parking", container.SwapHandler.SwapWithParking)
			bookings.POST("/swap-auto", container.SwapHandler.SwapAuto)

			bookings.POST("/bulk-delete", container.UndoHandler.BulkDelete)
			bookings.POST("/undo-delete", container.UndoHandler.UndoDelete)
		}

		wallet := v1.Group("/wallet")
		{
			wallet.POST("/deposit/:userId", middleware.RequireRole("admin", "manager", "owner"), container.FinanceHandler.Deposit)
			wallet.GET("/balance/:userId", container.FinanceHandler.Balance)
		}

		v1.POST("/packages/purchase", container.FinanceHandler.PurchasePackage)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Booking engine listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
