package repo

import (
	"sync"

	"github.com/dmarchetti/scanventory/internal/models"
)

type InMemoryCartRepository struct {
	mu    sync.Mutex
	carts map[string]models.Cart
}

func NewInMemoryCartRepository() *InMemoryCartRepository {
	return &InMemoryCartRepository{carts: make(map[string]models.Cart)}
}

func (r *InMemoryCartRepository) Save(cart models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.ID] = cart
	return nil
}

func (r *InMemoryCartRepository) Get(id string) (models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[id]
	if !ok {
		return models.Cart{}, ErrCartNotFound
	}
	return cart, nil
}

func (r *InMemoryCartRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[id]; !ok {
		return ErrCartNotFound
	}
	delete(r.carts, id)
	return nil
}

// Clear removes all carts. Test helper.
func (r *InMemoryCartRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts = make(map[string]models.Cart)
}
