package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmarchetti/scanventory/internal/http/alerts"
	"github.com/dmarchetti/scanventory/internal/metrics"
	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

// CreateCartHandler godoc
// @Summary Open a new POS cart
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Cart
// @Failure 500 {string} string "Internal error"
// @Router /carts [post]
func CreateCartHandler(w http.ResponseWriter, r *http.Request) {
	cart := models.Cart{
		ID:        uuid.NewString(),
		Items:     []models.CartItem{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := cartRepo.Save(cart); err != nil {
		http.Error(w, "could not create cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// GetCartHandler godoc
// @Summary Get a cart
// @Tags carts
// @Produce json
// @Param id path string true "Cart ID"
// @Success 200 {object} models.Cart
// @Failure 404 {string} string "Not found"
// @Router /carts/{id} [get]
func GetCartHandler(w http.ResponseWriter, r *http.Request) {
	cart, err := cartRepo.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrCartNotFound) {
			http.Error(w, "cart not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddCartItemHandler godoc
// @Summary Add or bump an item in a cart
// @Description Manual counterpart of a sale scan; the requested quantity is bounded by current stock.
// @Tags carts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Param item body CartItemRequest true "Product and quantity"
// @Success 200 {object} models.Cart
// @Failure 400 {string} string "Invalid input"
// @Failure 404 {string} string "Not found"
// @Failure 409 {object} InsufficientStockResponse
// @Router /carts/{id}/items [post]
func AddCartItemHandler(w http.ResponseWriter, r *http.Request) {
	cart, err := cartRepo.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrCartNotFound) {
			http.Error(w, "cart not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch cart", http.StatusInternalServerError)
		return
	}

	var req CartItemRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be greater than zero", http.StatusBadRequest)
		return
	}

	product, err := productRepo.GetByID(req.ProductID)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}

	idx := -1
	inCart := 0
	for i, item := range cart.Items {
		if item.ProductID == product.ID {
			idx = i
			inCart = item.Quantity
			break
		}
	}

	if inCart+req.Quantity > product.Quantity {
		writeJSON(w, http.StatusConflict, InsufficientStockResponse{
			Error:     "insufficient stock",
			ProductID: product.ID,
			Requested: inCart + req.Quantity,
			Available: product.Quantity,
		})
		return
	}

	if idx >= 0 {
		cart.Items[idx].Quantity += req.Quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  req.Quantity,
		})
	}
	cart.UpdatedAt = time.Now()

	if err := cartRepo.Save(cart); err != nil {
		http.Error(w, "could not save cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveCartItemHandler godoc
// @Summary Remove an item from a cart
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Param productId path int true "Product ID"
// @Success 200 {object} models.Cart
// @Failure 404 {string} string "Not found"
// @Router /carts/{id}/items/{productId} [delete]
func RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	cart, err := cartRepo.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrCartNotFound) {
			http.Error(w, "cart not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch cart", http.StatusInternalServerError)
		return
	}

	productID := parseIntPtr(chi.URLParam(r, "productId"))
	if productID == nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID == *productID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		http.Error(w, "item not in cart", http.StatusNotFound)
		return
	}
	cart.Items = items
	cart.UpdatedAt = time.Now()

	if err := cartRepo.Save(cart); err != nil {
		http.Error(w, "could not save cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// DeleteCartHandler godoc
// @Summary Abandon a cart
// @Description Discards the cart without touching stock; nothing was decremented yet.
// @Tags carts
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Success 204 "Deleted"
// @Failure 404 {string} string "Not found"
// @Router /carts/{id} [delete]
func DeleteCartHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := cartRepo.Get(id); err != nil {
		if errors.Is(err, repo.ErrCartNotFound) {
			http.Error(w, "cart not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch cart", http.StatusInternalServerError)
		return
	}
	if err := cartRepo.Delete(id); err != nil {
		http.Error(w, "could not delete cart", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckoutHandler godoc
// @Summary Check a cart out
// @Description Decrements stock per line with a conditional statement; if any line no longer has cover, the decrements already applied are rolled back and the cart is left open.
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Success 200 {object} CheckoutResult
// @Failure 404 {string} string "Not found"
// @Failure 409 {object} InsufficientStockResponse
// @Failure 422 {string} string "Empty cart"
// @Router /carts/{id}/checkout [post]
func CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	cart, err := cartRepo.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrCartNotFound) {
			http.Error(w, "cart not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch cart", http.StatusInternalServerError)
		return
	}
	if len(cart.Items) == 0 {
		http.Error(w, "cart is empty", http.StatusUnprocessableEntity)
		return
	}

	type applied struct {
		productID int
		qty       int
	}
	done := make([]applied, 0, len(cart.Items))

	rollback := func() {
		for _, a := range done {
			if _, err := productRepo.AdjustQuantity(r.Context(), a.productID, a.qty); err != nil {
				zap.L().Error("checkout rollback failed",
					zap.Int("product_id", a.productID), zap.Int("qty", a.qty), zap.Error(err))
			}
		}
	}

	itemCount := 0
	lowStock := make([]models.Product, 0, len(cart.Items))
	for _, item := range cart.Items {
		updated, err := productRepo.DecrementQuantity(r.Context(), item.ProductID, item.Quantity)
		if err != nil {
			rollback()
			var ise *repo.InsufficientStockError
			if errors.As(err, &ise) {
				writeJSON(w, http.StatusConflict, InsufficientStockResponse{
					Error:     "insufficient stock",
					ProductID: ise.ProductID,
					Requested: ise.Requested,
					Available: ise.Available,
				})
				return
			}
			if errors.Is(err, repo.ErrProductNotFound) {
				http.Error(w, "product no longer exists", http.StatusConflict)
				return
			}
			http.Error(w, "could not complete checkout", http.StatusInternalServerError)
			return
		}
		done = append(done, applied{item.ProductID, item.Quantity})
		itemCount += item.Quantity
		if updated.Quantity < updated.Threshold {
			lowStock = append(lowStock, updated)
		}
	}

	// Ledger entries only once the whole sale has gone through; a rolled-back
	// line must not leave a sale movement behind.
	for _, item := range cart.Items {
		if err := movementRepo.Log(item.ProductID, -item.Quantity, models.MovementReasonSale); err != nil {
			zap.L().Warn("failed to log sale movement",
				zap.Int("product_id", item.ProductID), zap.Error(err))
		}
		metrics.StockAdjustments.WithLabelValues(models.MovementReasonSale).Inc()
	}
	for _, p := range lowStock {
		alerts.LowStockAlert(p)
	}

	if err := cartRepo.Delete(cart.ID); err != nil {
		zap.L().Warn("failed to delete checked-out cart",
			zap.String("cart_id", cart.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, CheckoutResult{
		CartID: cart.ID,
		Total:  cart.Total(),
		Items:  itemCount,
		SoldAt: time.Now(),
	})
}
