package repo

import (
	"context"

	"github.com/dmarchetti/scanventory/internal/models"
)

// ProductFilter narrows and paginates product listings.
type ProductFilter struct {
	Name       string
	CategoryID *int
	MinPrice   *float64
	MaxPrice   *float64
	MinQty     *int
	MaxQty     *int
	LowStock   bool
	Offset     *int
	Limit      *int
}

// ProductRepository defines the interface for product data operations.
//
// GetByBarcode, AdjustQuantity and DecrementQuantity take a context because
// they sit on the scan path, where an in-flight call must be abandonable when
// the scan session is torn down.
type ProductRepository interface {
	Create(product models.Product) (models.Product, error)
	GetAll() ([]models.Product, error)
	GetByID(id int) (models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (models.Product, error)
	Update(product models.Product) (models.Product, error)
	Delete(id int) error
	Filter(f ProductFilter) ([]models.Product, int, error)

	// AdjustQuantity applies delta atomically in a single statement and fails
	// with ErrInvalidQuantityChange if the result would be negative.
	AdjustQuantity(ctx context.Context, productID, delta int) (models.Product, error)

	// DecrementQuantity subtracts qty only if the current quantity covers it,
	// as one conditional statement; otherwise it returns
	// *InsufficientStockError carrying the available quantity.
	DecrementQuantity(ctx context.Context, productID, qty int) (models.Product, error)

	SetImageURL(productID int, url string) error
}
