package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

var (
	// ErrProductNotFound is returned when no product matches the lookup.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateName is returned when a write collides with the unique name index.
	ErrDuplicateName = errors.New("product name already exists")
)

// ProductRepository defines the interface for product data access.
// Implementations must not retry; storage errors go back to the caller as-is.
type ProductRepository interface {
	List(ctx context.Context, params models.ListParams) (*models.ProductList, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	// GetByName matches the whole name, ignoring case.
	GetByName(ctx context.Context, name string) (*models.Product, error)
	// Create stamps CreatedAt and returns the generated id.
	Create(ctx context.Context, product *models.Product) (int, error)
	// Update stamps UpdatedAt and returns the number of rows affected.
	Update(ctx context.Context, product *models.Product) (int64, error)
	Delete(ctx context.Context, id int) (int64, error)
}
