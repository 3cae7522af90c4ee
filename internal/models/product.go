package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a catalog record.
type Product struct {
	ProductID   int             `json:"productId" gorm:"column:product_id;primaryKey;autoIncrement"`
	Name        string          `json:"name" gorm:"column:name;type:varchar(100);not null"`
	Price       decimal.Decimal `json:"price" gorm:"column:price;type:decimal(18,2);not null"`
	Description string          `json:"description" gorm:"column:description;type:varchar(500)"`
	Quantity    int             `json:"quantity" gorm:"column:quantity;not null;default:0"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty" gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName pins the table name regardless of the naming strategy.
func (Product) TableName() string {
	return "products"
}

// Sortable columns accepted by ListParams.SortBy. Anything else sorts by id.
const (
	SortByName  = "name"
	SortByPrice = "price"
)

// ListParams describes one page of a product listing.
type ListParams struct {
	Page      int
	PageSize  int
	Search    string
	SortBy    string
	Ascending bool
}

// Offset returns the number of rows skipped before the page starts. ok is
// false when the offset does not fit in an int64, in which case the page
// lies past any stored row.
func (p ListParams) Offset() (offset int64, ok bool) {
	if p.Page < 1 || p.PageSize < 1 {
		return 0, true
	}
	skipped := int64(p.Page - 1)
	if skipped > math.MaxInt64/int64(p.PageSize) {
		return 0, false
	}
	return skipped * int64(p.PageSize), true
}

// ProductList is a page of products plus the number of rows matching the
// search, ignoring pagination.
type ProductList struct {
	Items []Product
	Total int64
}
