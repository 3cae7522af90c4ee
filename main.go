package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/server"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// App is the HTTP server together with the resources it owns.
type App struct {
	Fiber   *fiber.App
	log     *zap.Logger
	closers []func() error
}

// NewApp wires storage, event publishing and the HTTP server from cfg.
func NewApp(cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{log: log}

	// --- Initialize Repository ---
	repo, err := a.openRepository(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// --- Initialize RabbitMQ Client ---
	// Left nil when no broker is configured; the service then skips publishing.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange}, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, mqClient.Close)
		publisher = mqClient
	}

	// --- Initialize Service and Server ---
	productService := services.NewProductService(repo, publisher, log)
	if cfg.SeedSampleData {
		seedProducts(context.Background(), productService, log)
	}
	a.Fiber = server.New(cfg, log, productService)
	return a, nil
}

func (a *App) openRepository(cfg config.Config) (repositories.ProductRepository, error) {
	if cfg.DatabaseDriver == database.DriverMemory {
		a.log.Info("using in-memory product storage")
		return repositories.NewMemoryProductRepository(), nil
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, a.log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sqlDB.Close)

	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return repositories.NewGORMProductRepository(db), nil
}

// Close releases everything NewApp opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	app, err := NewApp(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}

	// --- Start HTTP Server ---
	zlog.Info("starting server", zap.String("addr", cfg.AppPort))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("shutting down server")

	if err := app.Fiber.ShutdownWithTimeout(shutdownTimeout); err != nil {
		zlog.Error("error during fiber shutdown", zap.Error(err))
	}
	if err := app.Close(); err != nil {
		zlog.Error("error releasing resources", zap.Error(err))
	}
	zlog.Info("server gracefully stopped")
}

// seedProducts adds a few demo products. Names already present are skipped.
func seedProducts(ctx context.Context, svc *services.ProductService, log *zap.Logger) {
	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: decimal.NewFromInt(1200), Quantity: 10},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.NewFromInt(75), Quantity: 25},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.NewFromInt(25), Quantity: 50},
	}

	for i := range products {
		created, err := svc.CreateProduct(ctx, &products[i])
		switch {
		case errors.Is(err, services.ErrNameTaken):
			log.Debug("seed product already present", zap.String("name", products[i].Name))
		case err != nil:
			log.Warn("error seeding product", zap.String("name", products[i].Name), zap.Error(err))
		default:
			log.Info("seeded product", zap.String("name", created.Name), zap.Int("product_id", created.ProductID))
		}
	}
}
