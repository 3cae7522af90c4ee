package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// Names are unique ignoring case, like the unique index on the SQL schema.
type MemoryProductRepository struct {
	products map[int]models.Product
	nextID   int
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[int]models.Product),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of products and the number of rows matching the search.
func (r *MemoryProductRepository) List(_ context.Context, params models.ListParams) (*models.ProductList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	needle := strings.ToLower(params.Search)
	for _, p := range r.products {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(p.Price.String(), params.Search) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !params.Ascending {
			a, b = b, a
		}
		switch params.SortBy {
		case models.SortByName:
			return a.Name < b.Name
		case models.SortByPrice:
			if cmp := a.Price.Cmp(b.Price); cmp != 0 {
				return cmp < 0
			}
		}
		return a.ProductID < b.ProductID
	})

	result := &models.ProductList{Items: []models.Product{}, Total: int64(len(matched))}
	offset, inRange := params.Offset()
	if !inRange || offset >= int64(len(matched)) {
		return result, nil
	}
	start := int(offset)
	end := len(matched)
	if params.PageSize < end-start {
		end = start + params.PageSize
	}
	result.Items = append(result.Items, matched[start:end]...)
	return result, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id int) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	return &product, nil
}

// GetByName returns the product whose name equals name, ignoring case.
func (r *MemoryProductRepository) GetByName(_ context.Context, name string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if product, ok := r.findByName(name); ok {
		return &product, nil
	}
	return nil, fmt.Errorf("product with name %q: %w", name, ErrProductNotFound)
}

// Create adds a new product and assigns it the next id.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.findByName(product.Name); taken {
		return 0, fmt.Errorf("failed to create product %q: %w", product.Name, ErrDuplicateName)
	}

	product.ProductID = r.nextID
	product.CreatedAt = r.now()
	product.UpdatedAt = nil
	r.nextID++
	r.products[product.ProductID] = *product
	return product.ProductID, nil
}

// Update modifies an existing product. created_at is kept from the stored row.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ProductID]
	if !ok {
		return 0, nil
	}
	if other, taken := r.findByName(product.Name); taken && other.ProductID != product.ProductID {
		return 0, fmt.Errorf("failed to update product %d: %w", product.ProductID, ErrDuplicateName)
	}

	now := r.now()
	product.UpdatedAt = &now
	stored.Name = product.Name
	stored.Price = product.Price
	stored.Description = product.Description
	stored.Quantity = product.Quantity
	stored.UpdatedAt = &now
	r.products[product.ProductID] = stored
	return 1, nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return 0, nil
	}
	delete(r.products, id)
	return 1, nil
}

// findByName expects r.mu to be held.
func (r *MemoryProductRepository) findByName(name string) (models.Product, bool) {
	for _, p := range r.products {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return models.Product{}, false
}
