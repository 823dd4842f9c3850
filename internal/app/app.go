// Package app wires the store, services, broker and HTTP routes into a runnable application.
package app

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"inventory/internal/config"
	"inventory/internal/contract"
	"inventory/internal/database"
	"inventory/internal/handlers"
	"inventory/internal/middleware"
	"inventory/internal/models"
	"inventory/internal/notify"
	"inventory/internal/repositories"
	"inventory/internal/services"
	"inventory/pkg/rabbitmq"
)

// App holds the wired application.
type App struct {
	Config   *config.Config
	Fiber    *fiber.App
	Products *services.ProductService
	Restock  *services.RestockService
	Auth     *services.AuthService
	Changes  *notify.Registry

	db            *gorm.DB
	broker        *rabbitmq.Client
	stopForwarder func()
}

// New opens the store, connects to the broker when one is configured and builds the
// HTTP application.
func New(cfg *config.Config) (*App, error) {
	var broker *rabbitmq.Client
	if cfg.BrokerEnabled() {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return nil, err
		}
		broker = client
	}

	a, err := NewWithBroker(cfg, broker)
	if err != nil && broker != nil {
		broker.Close()
	}
	return a, err
}

// NewWithBroker builds the application around an already connected broker client.
// broker may be nil.
func NewWithBroker(cfg *config.Config, broker *rabbitmq.Client) (*App, error) {
	db, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	var (
		productRepo repositories.ProductRepository
		orderRepo   repositories.RestockOrderRepository
	)
	if cfg.StoreDriver == config.StoreMemory {
		productRepo = repositories.NewMemoryProductRepository()
		orderRepo = repositories.NewMemoryRestockOrderRepository()
	} else {
		productRepo = repositories.NewGORMProductRepository(db)
		orderRepo = repositories.NewGORMRestockOrderRepository(db)
	}

	a := &App{
		Config:  cfg,
		Changes: notify.NewRegistry(),
		db:      db,
		broker:  broker,
	}
	a.Products = services.NewProductService(productRepo, a.Changes)

	var publisher services.RestockPublisher
	if broker != nil {
		publisher = restockPublisher{client: broker}
		a.stopForwarder = a.Changes.Register(contract.ProductsAddress, true, broker.ChangeObserver())
	}
	a.Restock = services.NewRestockService(orderRepo, a.Products, publisher, cfg.SupplierEmail)
	a.Auth = services.NewAuthService(repositories.NewGORMClerkRepository(db), cfg.JWTSecret, cfg.TokenTTL)

	a.Fiber = a.routes()
	return a, nil
}

// OpenStore opens and migrates the relational store named by cfg. The memory driver
// gets a private in-memory SQLite database.
func OpenStore(cfg *config.Config) (*gorm.DB, error) {
	driver, dsn := cfg.StoreDriver, cfg.DatabaseDSN
	if driver == config.StoreMemory {
		driver, dsn = database.DriverSQLite, "file::memory:"
	}
	return database.OpenMigrated(driver, dsn)
}

func (a *App) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "inventory",
		BodyLimit: 8 * 1024 * 1024,
	})
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		broker := "disabled"
		if a.broker != nil {
			broker = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"rabbitMQ": broker,
		})
	})

	apiV1 := app.Group("/api/v1")
	authHandler := handlers.NewAuthHandler(a.Auth)
	authHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(a.Auth))
	authHandler.RegisterProtectedRoutes(protected)
	handlers.NewProductHandler(a.Products, a.Restock).RegisterRoutes(protected)
	handlers.NewRestockHandler(a.Restock).RegisterRoutes(protected)
	return app
}

// ConsumeChanges logs change events published by any process sharing the broker.
// It does nothing without a broker.
func (a *App) ConsumeChanges() error {
	if a.broker == nil {
		return nil
	}
	return a.broker.ConsumeChanges(func(event rabbitmq.ChangeEvent) error {
		log.Printf("Inventory changed at %s (%s)", event.Address, event.ChangedAt.Format(time.RFC3339))
		return nil
	})
}

// Listen serves HTTP on addr until Shutdown is called.
func (a *App) Listen(addr string) error {
	log.Printf("Starting server on port %s", addr)
	return a.Fiber.Listen(addr)
}

// Shutdown stops the HTTP server and releases the store and broker.
func (a *App) Shutdown() error {
	if err := a.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	return a.Close()
}

// Close releases the store and broker without touching the HTTP server.
func (a *App) Close() error {
	if a.stopForwarder != nil {
		a.stopForwarder()
	}
	var errs []error
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors while closing application: %v", errs)
	}
	return nil
}

// restockPublisher adapts the broker client to services.RestockPublisher.
type restockPublisher struct {
	client *rabbitmq.Client
}

func (p restockPublisher) PublishRestockOrder(order models.RestockOrder) error {
	return p.client.PublishRestockOrder(order)
}
