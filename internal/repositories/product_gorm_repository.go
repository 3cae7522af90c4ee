package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/models"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

var productColumns = []string{
	"product_id",
	"name",
	"price",
	"description",
	"quantity",
	"created_at",
	"updated_at",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
// Every call checks out its own connection and hands it back when done.
type GORMProductRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *GORMProductRepository) withConn(ctx context.Context, fn func(conn *gorm.DB) error) error {
	return r.db.WithContext(ctx).Connection(fn)
}

// List returns one page of products and the number of rows matching the search.
func (r *GORMProductRepository) List(ctx context.Context, params models.ListParams) (*models.ProductList, error) {
	offset, inRange := params.Offset()
	pageQuery := sq.Select(productColumns...).
		From(models.Product{}.TableName()).
		OrderBy(orderByClause(params.SortBy, params.Ascending)...).
		Limit(uint64(params.PageSize)).
		Offset(uint64(offset))
	countQuery := sq.Select("COUNT(*)").From(models.Product{}.TableName())

	if search := searchClause(params.Search); search != nil {
		pageQuery = pageQuery.Where(search)
		countQuery = countQuery.Where(search)
	}

	pageSQL, pageArgs, err := pageQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build product page query: %w", err)
	}
	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build product count query: %w", err)
	}

	result := &models.ProductList{Items: []models.Product{}}
	err = r.withConn(ctx, func(conn *gorm.DB) error {
		// A page starting past int64 cannot hold rows; only the total is needed.
		if inRange {
			if err := conn.Raw(pageSQL, pageArgs...).Scan(&result.Items).Error; err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}
		}
		if err := conn.Raw(countSQL, countArgs...).Scan(&result.Total).Error; err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	err := r.withConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("product_id = ?", id).Take(&product).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// GetByName retrieves the product whose name equals name, ignoring case.
func (r *GORMProductRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.withConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("LOWER(name) = LOWER(?)", name).Take(&product).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with name %q: %w", name, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by name %q: %w", name, err)
	}
	return &product, nil
}

// Create inserts product and returns the id assigned by the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) (int, error) {
	product.ProductID = 0
	product.CreatedAt = r.now()
	product.UpdatedAt = nil

	err := r.withConn(ctx, func(conn *gorm.DB) error {
		return conn.Create(product).Error
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			return 0, fmt.Errorf("failed to create product %q: %w", product.Name, ErrDuplicateName)
		}
		return 0, fmt.Errorf("failed to create product: %w", err)
	}
	return product.ProductID, nil
}

// Update overwrites the mutable columns of the product matching product.ProductID.
// created_at is never written.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) (int64, error) {
	now := r.now()
	product.UpdatedAt = &now

	var affected int64
	err := r.withConn(ctx, func(conn *gorm.DB) error {
		res := conn.Model(&models.Product{}).
			Where("product_id = ?", product.ProductID).
			Updates(map[string]interface{}{
				"name":        product.Name,
				"price":       product.Price,
				"description": product.Description,
				"quantity":    product.Quantity,
				"updated_at":  now,
			})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			return 0, fmt.Errorf("failed to update product %d: %w", product.ProductID, ErrDuplicateName)
		}
		return 0, fmt.Errorf("failed to update product %d: %w", product.ProductID, err)
	}
	return affected, nil
}

// Delete removes the product with the given id.
func (r *GORMProductRepository) Delete(ctx context.Context, id int) (int64, error) {
	var affected int64
	err := r.withConn(ctx, func(conn *gorm.DB) error {
		res := conn.Where("product_id = ?", id).Delete(&models.Product{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return affected, nil
}

// searchClause matches the name case-insensitively or the textual price,
// both as substrings. It returns nil for an empty search.
func searchClause(search string) sq.Sqlizer {
	if search == "" {
		return nil
	}
	pattern := "%" + search + "%"
	return sq.Or{
		sq.Expr("LOWER(name) LIKE LOWER(?)", pattern),
		sq.Expr("CAST(price AS TEXT) LIKE ?", pattern),
	}
}

func orderByClause(sortBy string, ascending bool) []string {
	direction := "ASC"
	if !ascending {
		direction = "DESC"
	}
	switch sortBy {
	case models.SortByName:
		return []string{"name " + direction}
	case models.SortByPrice:
		// product_id keeps pages stable when prices tie.
		return []string{"price " + direction, "product_id " + direction}
	default:
		return []string{"product_id " + direction}
	}
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// PostgreSQL 23505
	if strings.Contains(msg, "duplicate key value violates unique constraint") || strings.Contains(msg, "SQLSTATE 23505") {
		return true
	}
	// SQLite
	return strings.Contains(msg, "UNIQUE constraint failed")
}
