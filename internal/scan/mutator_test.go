package scan

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

func newTestMutator(t *testing.T, quantity int) (*Mutator, *repo.InMemoryProductRepository, *repo.InMemoryMovementRepository, models.Product) {
	t.Helper()
	products := repo.NewInMemoryProductRepository()
	movements := repo.NewInMemoryMovementRepository()
	barcode := "X"
	p, err := products.Create(models.Product{
		SKU: "SKU-X", Barcode: &barcode, Name: "Widget", Price: 2.50, Quantity: quantity,
	})
	if err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return NewMutator(products, movements), products, movements, p
}

func TestDecrementFailsWithoutClamping(t *testing.T) {
	m, products, _, p := newTestMutator(t, 2)

	_, err := m.Decrement(context.Background(), p.ID, 3)
	var insufficient *repo.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 2 {
		t.Errorf("expected available 2, got %d", insufficient.Available)
	}
	if insufficient.Requested != 3 {
		t.Errorf("expected requested 3, got %d", insufficient.Requested)
	}

	// State unchanged: the failed decrement neither clamps nor partially
	// applies.
	current, _ := products.GetByID(p.ID)
	if current.Quantity != 2 {
		t.Errorf("quantity changed on failed decrement: %d", current.Quantity)
	}
}

func TestDecrementExactStock(t *testing.T) {
	m, _, movements, p := newTestMutator(t, 2)

	updated, err := m.Decrement(context.Background(), p.ID, 2)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if updated.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", updated.Quantity)
	}

	logged, _, _ := movements.GetByProductID(p.ID, repo.MovementFilter{})
	if len(logged) != 1 || logged[0].Delta != -2 || logged[0].Reason != models.MovementReasonSale {
		t.Errorf("unexpected ledger contents %+v", logged)
	}
}

func TestIncrementHasNoUpperBoundAndLogsScanReason(t *testing.T) {
	m, _, movements, p := newTestMutator(t, 0)

	updated, err := m.Increment(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if updated.Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", updated.Quantity)
	}

	logged, _, _ := movements.GetByProductID(p.ID, repo.MovementFilter{})
	if len(logged) != 1 || logged[0].Delta != 1 || logged[0].Reason != models.MovementReasonScan {
		t.Errorf("unexpected ledger contents %+v", logged)
	}
}

func TestConcurrentIncrementsLoseNothing(t *testing.T) {
	m, products, _, p := newTestMutator(t, 0)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := m.Increment(context.Background(), p.ID); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	current, _ := products.GetByID(p.ID)
	if current.Quantity != n {
		t.Errorf("lost updates: expected %d, got %d", n, current.Quantity)
	}
}

func TestIncrementUnknownProduct(t *testing.T) {
	m, _, _, _ := newTestMutator(t, 0)

	if _, err := m.Increment(context.Background(), 999); !errors.Is(err, repo.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}
