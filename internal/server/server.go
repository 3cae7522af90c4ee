package server

import (
	"errors"
	"time"

	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// APIPrefix is where the product routes are mounted.
const APIPrefix = "/api"

// New builds the Fiber app serving the product API.
func New(cfg config.Config, log *zap.Logger, productService *services.ProductService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "catalog",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log.Named("http")),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.AllowedOrigins, handlers.TotalCountHeader))
	app.Use(middleware.RequestLogger(log))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	// --- API Routes ---
	productHandler := handlers.NewProductHandler(productService, log)
	productHandler.RegisterRoutes(app.Group(APIPrefix))

	return app
}

// errorHandler answers fiber errors with their own code and hides every
// other failure behind a generic 500.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}
		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error.",
		})
	}
}
