package repo

import (
	"errors"
	"fmt"
)

// ErrProductNotFound is returned when a product is not found in the repository.
var ErrProductNotFound = errors.New("product not found")

// ErrCategoryNotFound is returned when a category is not found in the repository.
var ErrCategoryNotFound = errors.New("category not found")

// ErrUserNotFound is returned when a user is not found in the repository.
var ErrUserNotFound = errors.New("user not found")

// ErrCartNotFound is returned when a cart is not found in the repository.
var ErrCartNotFound = errors.New("cart not found")

// ErrDuplicatedValueUnique is returned when an insert or update violates a
// unique constraint (sku, barcode, username).
var ErrDuplicatedValueUnique = errors.New("duplicated value for unique column")

// ErrInvalidQuantityChange is returned when an adjustment would drive a
// product's quantity below zero.
var ErrInvalidQuantityChange = errors.New("quantity cannot be negative")

// InsufficientStockError reports a rejected decrement together with the stock
// that was actually available, so callers can say exactly how much is short.
type InsufficientStockError struct {
	ProductID int
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, %d available",
		e.ProductID, e.Requested, e.Available)
}
