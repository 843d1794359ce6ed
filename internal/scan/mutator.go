package scan

import (
	"context"

	"go.uber.org/zap"

	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

// Mutator applies stock deltas for the scan workflow. Both paths are single
// atomic statements at the store; there is no read-modify-write in here, so
// two scans of the same item landing together both count.
type Mutator struct {
	products  repo.ProductRepository
	movements repo.MovementRepository
}

func NewMutator(products repo.ProductRepository, movements repo.MovementRepository) *Mutator {
	return &Mutator{products: products, movements: movements}
}

// Increment adds one unit. No upper bound.
func (m *Mutator) Increment(ctx context.Context, productID int) (models.Product, error) {
	product, err := m.products.AdjustQuantity(ctx, productID, 1)
	if err != nil {
		return models.Product{}, err
	}
	m.logMovement(productID, 1, models.MovementReasonScan)
	return product, nil
}

// Decrement subtracts qty, failing with *repo.InsufficientStockError when the
// available stock does not cover it. State is unchanged on failure.
func (m *Mutator) Decrement(ctx context.Context, productID, qty int) (models.Product, error) {
	product, err := m.products.DecrementQuantity(ctx, productID, qty)
	if err != nil {
		return models.Product{}, err
	}
	m.logMovement(productID, -qty, models.MovementReasonSale)
	return product, nil
}

// The ledger is an audit trail; a failed append must not undo or fail a
// stock change that already landed.
func (m *Mutator) logMovement(productID, delta int, reason string) {
	if err := m.movements.Log(productID, delta, reason); err != nil {
		zap.L().Warn("failed to log stock movement",
			zap.Int("product_id", productID),
			zap.Int("delta", delta),
			zap.String("reason", reason),
			zap.Error(err))
	}
}
