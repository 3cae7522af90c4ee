package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"go.uber.org/zap"
)

const (
	// DefaultPage and DefaultPageSize apply when a listing asks for a non-positive value.
	DefaultPage     = 1
	DefaultPageSize = 10

	// minNameLength counts characters, not bytes.
	minNameLength = 3
)

// Errors returned by ProductService for requests it refuses.
var (
	ErrInvalidName  = errors.New("product name must be at least 3 characters long")
	ErrInvalidPrice = errors.New("product price must be greater than zero")
	ErrIDMismatch   = errors.New("product ID mismatch")
	ErrNameTaken    = errors.New("a product with this name already exists")
)

// EventPublisher receives a notification after every successful write.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	log       *zap.Logger
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, log *zap.Logger) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		log:       log.Named("product.service"),
	}
}

// ListProducts returns one page of products matching params.
func (s *ProductService) ListProducts(ctx context.Context, params models.ListParams) (*models.ProductList, error) {
	if params.Page < 1 {
		params.Page = DefaultPage
	}
	if params.PageSize < 1 {
		params.PageSize = DefaultPageSize
	}
	return s.repo.List(ctx, params)
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates product, checks that its name is free and stores it.
// On success product carries the generated id and creation time.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if strings.TrimSpace(product.Name) == "" || utf8.RuneCountInString(product.Name) < minNameLength {
		return nil, ErrInvalidName
	}
	if !product.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	if err := s.ensureNameFree(ctx, product.Name, 0); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, product)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateName) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	product.ProductID = id

	s.log.Info("product created", zap.Int("product_id", id), zap.String("name", product.Name))
	s.publish(ctx, models.EventProductCreated, id, product)
	return product, nil
}

// UpdateProduct overwrites the product with the given id. The body must
// carry the same id.
func (s *ProductService) UpdateProduct(ctx context.Context, id int, product *models.Product) error {
	if product.ProductID != id {
		return ErrIDMismatch
	}

	if err := s.ensureNameFree(ctx, product.Name, id); err != nil {
		return err
	}

	affected, err := s.repo.Update(ctx, product)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateName) {
			return ErrNameTaken
		}
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, repositories.ErrProductNotFound)
	}

	s.log.Info("product updated", zap.Int("product_id", id))
	s.publish(ctx, models.EventProductUpdated, id, product)
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("product deleted", zap.Int("product_id", id))
	s.publish(ctx, models.EventProductDeleted, id, nil)
	return nil
}

// ensureNameFree fails with ErrNameTaken when a product other than ownID
// already uses name. Use ownID 0 for a product that does not exist yet.
func (s *ProductService) ensureNameFree(ctx context.Context, name string, ownID int) error {
	existing, err := s.repo.GetByName(ctx, name)
	switch {
	case errors.Is(err, repositories.ErrProductNotFound):
		return nil
	case err != nil:
		return err
	case existing.ProductID != ownID:
		return ErrNameTaken
	}
	return nil
}

func (s *ProductService) publish(ctx context.Context, eventType string, id int, product *models.Product) {
	if s.publisher == nil {
		return
	}
	event := models.ProductEvent{
		Type:       eventType,
		ProductID:  id,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.log.Warn("failed to publish product event",
			zap.String("type", eventType),
			zap.Int("product_id", id),
			zap.Error(err))
	}
}
