package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TotalCountHeader carries the number of products matching a listing.
const TotalCountHeader = "X-Total-Count"

const (
	msgInvalidBody   = "Invalid request body"
	msgInvalidQuery  = "Invalid query parameters"
	msgInvalidID     = "Invalid product ID"
	msgValidation    = "Validation failed"
	msgNotFound      = "Product not found."
	msgNameTooShort  = "Product name must be at least 3 characters long."
	msgPriceTooLow   = "Product price must be greater than zero."
	msgIDMismatch    = "Product ID mismatch."
	msgDuplicateName = "A product with this name already exists."
	msgUpdated       = "Product updated successfully."
)

// ListQuery is the query string of GET /products.
type ListQuery struct {
	Page      int    `query:"page" validate:"gte=1"`
	PageSize  int    `query:"pageSize" validate:"gte=1"`
	Search    string `query:"search"`
	SortBy    string `query:"sortBy"`
	Ascending bool   `query:"ascending"`
}

// ProductRequest is the body of POST and PUT. Timestamps sent by clients
// are not part of it and are dropped while decoding.
type ProductRequest struct {
	ProductID   int             `json:"productId"`
	Name        string          `json:"name" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"max=500"`
	Quantity    int             `json:"quantity"`
}

func (r ProductRequest) toModel() *models.Product {
	return &models.Product{
		ProductID:   r.ProductID,
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		Quantity:    r.Quantity,
	}
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
		log:      log.Named("product.handler"),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts returns one page of products. The total number of
// matches travels in the X-Total-Count header.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	query := ListQuery{
		Page:      services.DefaultPage,
		PageSize:  services.DefaultPageSize,
		SortBy:    models.SortByName,
		Ascending: true,
	}
	if err := c.QueryParser(&query); err != nil {
		h.log.Debug("invalid list query", zap.Error(err))
		return message(c, fiber.StatusBadRequest, msgInvalidQuery)
	}
	if err := h.validate.Struct(query); err != nil {
		return validationFailed(c, err)
	}

	list, err := h.service.ListProducts(c.UserContext(), models.ListParams{
		Page:      query.Page,
		PageSize:  query.PageSize,
		Search:    query.Search,
		SortBy:    query.SortBy,
		Ascending: query.Ascending,
	})
	if err != nil {
		return err
	}

	items := list.Items
	if items == nil {
		items = []models.Product{}
	}
	c.Set(TotalCountHeader, strconv.FormatInt(list.Total, 10))
	return c.JSON(items)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return message(c, fiber.StatusBadRequest, msgInvalidID)
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product and points Location at it.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.Debug("invalid create body", zap.Error(err))
		return message(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), req.toModel())
	if err != nil {
		return h.mapError(c, err)
	}

	c.Location(fmt.Sprintf("%s/%d", strings.TrimSuffix(c.Path(), "/"), product.ProductID))
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the product identified by the path id.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return message(c, fiber.StatusBadRequest, msgInvalidID)
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.Debug("invalid update body", zap.Error(err))
		return message(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	if err := h.service.UpdateProduct(c.UserContext(), id, req.toModel()); err != nil {
		return h.mapError(c, err)
	}
	return message(c, fiber.StatusOK, msgUpdated)
}

// HandleDeleteProduct deletes a product and answers with an empty 204.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return message(c, fiber.StatusBadRequest, msgInvalidID)
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return h.mapError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// mapError turns domain errors into status codes. Anything unknown goes to
// the app error handler as a 500.
func (h *ProductHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidName):
		return message(c, fiber.StatusBadRequest, msgNameTooShort)
	case errors.Is(err, services.ErrInvalidPrice):
		return message(c, fiber.StatusBadRequest, msgPriceTooLow)
	case errors.Is(err, services.ErrIDMismatch):
		return message(c, fiber.StatusBadRequest, msgIDMismatch)
	case errors.Is(err, services.ErrNameTaken):
		return message(c, fiber.StatusConflict, msgDuplicateName)
	case errors.Is(err, repositories.ErrProductNotFound):
		return message(c, fiber.StatusNotFound, msgNotFound)
	}
	return err
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return message(c, fiber.StatusBadRequest, msgValidation)
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": msgValidation,
		"errors":  errorMessages,
	})
}
