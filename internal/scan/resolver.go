package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

// Resolver maps a committed barcode to a product. "No product for this code"
// is a routing outcome (repo.ErrProductNotFound), not a failure; anything
// else from the store is a transient lookup failure and must stay
// distinguishable so callers can offer a retry instead of opening a creation
// form for a code that may in fact exist.
type Resolver struct {
	products repo.ProductRepository
}

func NewResolver(products repo.ProductRepository) *Resolver {
	return &Resolver{products: products}
}

func (r *Resolver) Resolve(ctx context.Context, code string) (models.Product, error) {
	if code == "" {
		return models.Product{}, fmt.Errorf("barcode is empty")
	}

	product, err := r.products.GetByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return models.Product{}, repo.ErrProductNotFound
		}
		return models.Product{}, fmt.Errorf("barcode lookup failed: %w", err)
	}
	return product, nil
}
