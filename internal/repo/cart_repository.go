package repo

import "github.com/dmarchetti/scanventory/internal/models"

// CartRepository stores open POS carts. The production implementation mirrors
// carts to Redis so an interrupted sale survives a process restart.
type CartRepository interface {
	Save(cart models.Cart) error
	Get(id string) (models.Cart, error)
	Delete(id string) error
}
