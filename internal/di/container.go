package di

import (
	"time"

	"github.com/plannivo/booking-engine/internal/handler"
	"github.com/plannivo/booking-engine/internal/repository"
	"github.com/plannivo/booking-engine/internal/service"
	"github.com/plannivo/booking-engine/internal/undo"
	"github.com/plannivo/booking-engine/pkg/database"
	pkgredis "github.com/plannivo/booking-engine/pkg/redis"
)

// ContainerConfig holds the dependencies the container wires together
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *pkgredis.Client
	EventPublisher service.EventPublisher
	UndoStore      undo.Store
	ServiceConfig  service.Config
	UndoTokenTTL   time.Duration
	Version        string
}

// Container wires repositories, services and handlers
type Container struct {
	BookingService *service.BookingService
	SwapService    *service.SwapService
	UndoService    *service.UndoService
	FinanceService *service.FinanceService

	BookingHandler *handler.BookingHandler
	SwapHandler    *handler.SwapHandler
	UndoHandler    *handler.UndoHandler
	FinanceHandler *handler.FinanceHandler
	HealthHandler  *handler.HealthHandler

	undoStore undo.Store
	events    service.EventPublisher
}

// NewContainer creates and wires all components
func NewContainer(cfg *ContainerConfig) *Container {
	pool := cfg.DB.Pool()

	bookingRepo := repository.NewPostgresBookingRepository(pool)
	packageRepo := repository.NewPostgresPackageRepository(pool)
	walletRepo := repository.NewPostgresWalletRepository(pool)
	userRepo := repository.NewPostgresUserRepository(pool)
	catalogRepo := repository.NewPostgresCatalogRepository(pool)

	txm := service.NewPgxTxManager(cfg.DB)

	bookingService := service.NewBookingService(
		txm, bookingRepo, packageRepo, walletRepo, userRepo, catalogRepo,
		cfg.EventPublisher, cfg.ServiceConfig,
	)
	swapService := service.NewSwapService(txm, bookingRepo, cfg.EventPublisher, cfg.ServiceConfig)
	undoService := service.NewUndoService(
		txm, bookingService, bookingRepo, packageRepo, walletRepo,
		cfg.UndoStore, cfg.EventPublisher, cfg.UndoTokenTTL,
	)
	financeService := service.NewFinanceService(txm, walletRepo, packageRepo, cfg.ServiceConfig)

	return &Container{
		BookingService: bookingService,
		SwapService:    swapService,
		UndoService:    undoService,
		FinanceService: financeService,

		BookingHandler: handler.NewBookingHandler(bookingService),
		SwapHandler:    handler.NewSwapHandler(swapService),
		UndoHandler:    handler.NewUndoHandler(undoService),
		FinanceHandler: handler.NewFinanceHandler(financeService),
		HealthHandler:  handler.NewHealthHandler(cfg.DB, cfg.Redis, cfg.Version),

		undoStore: cfg.UndoStore,
		events:    cfg.EventPublisher,
	}
}

// Close releases the container's background resources
func (c *Container) Close() {
	if c.undoStore != nil {
		c.undoStore.Stop()
	}
	if c.events != nil {
		c.events.Close()
	}
}
