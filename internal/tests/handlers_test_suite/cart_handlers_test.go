package handlers_test_suite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	handler "github.com/dmarchetti/scanventory/internal/http/handlers"
	"github.com/dmarchetti/scanventory/internal/models"
)

func TestAddCartItemHandler(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	created := mustCreateProduct(r, handler.ProductRequest{SKU: "CART-1", Name: "Soda", Price: 2.5, Quantity: 10})
	cart := createCart(r)

	w := doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items",
		handler.CartItemRequest{ProductID: created.Id, Quantity: 3})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Cart
	json.NewDecoder(w.Body).Decode(&updated)
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 3 {
		t.Fatalf("expected one item with quantity 3, got %+v", updated.Items)
	}

	// Adding again bumps the line rather than duplicating it.
	w = doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items",
		handler.CartItemRequest{ProductID: created.Id, Quantity: 2})
	json.NewDecoder(w.Body).Decode(&updated)
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 5 {
		t.Fatalf("expected one item with quantity 5, got %+v", updated.Items)
	}
}

func TestAddCartItemHandler_BoundedByStock(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	created := mustCreateProduct(r, handler.ProductRequest{SKU: "CART-2", Name: "Rare Item", Price: 99, Quantity: 2})
	cart := createCart(r)

	w := doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items",
		handler.CartItemRequest{ProductID: created.Id, Quantity: 3})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 Conflict, got %d", w.Code)
	}

	var resp handler.InsufficientStockResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if resp.Available != 2 || resp.Requested != 3 {
		t.Errorf("expected requested 3 / available 2, got %+v", resp)
	}
}

func TestRemoveCartItemHandler(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	created := mustCreateProduct(r, handler.ProductRequest{SKU: "CART-3", Name: "Soda", Price: 2.5, Quantity: 10})
	cart := createCart(r)
	doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items",
		handler.CartItemRequest{ProductID: created.Id, Quantity: 1})

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/carts/%s/items/%d", cart.ID, created.Id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var updated models.Cart
	json.NewDecoder(w.Body).Decode(&updated)
	if len(updated.Items) != 0 {
		t.Errorf("expected empty cart, got %+v", updated.Items)
	}
}

func TestCheckoutHandler(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	soda := mustCreateProduct(r, handler.ProductRequest{SKU: "CHK-1", Name: "Soda", Price: 2.5, Quantity: 10})
	chips := mustCreateProduct(r, handler.ProductRequest{SKU: "CHK-2", Name: "Chips", Price: 4.0, Quantity: 5})

	cart := createCart(r)
	doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items", handler.CartItemRequest{ProductID: soda.Id, Quantity: 2})
	doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items", handler.CartItemRequest{ProductID: chips.Id, Quantity: 1})

	w := doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/checkout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}

	var result handler.CheckoutResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if result.Total != 9.0 {
		t.Errorf("expected total 9.0, got %v", result.Total)
	}
	if result.Items != 3 {
		t.Errorf("expected 3 items, got %d", result.Items)
	}

	// Stock decremented per line.
	sodaAfter, err := productRepo.GetByID(soda.Id)
	if err != nil {
		t.Fatalf("product lookup failed: %v", err)
	}
	if sodaAfter.Quantity != 8 {
		t.Errorf("expected soda quantity 8, got %d", sodaAfter.Quantity)
	}

	// The cart is gone once sold.
	getW := doJSON(r, http.MethodGet, "/carts/"+cart.ID, nil)
	if getW.Code != http.StatusNotFound {
		t.Errorf("expected 404 for checked-out cart, got %d", getW.Code)
	}

	// Each line logged a sale movement.
	movements, _, _ := movementRepo.GetByProductID(soda.Id, movementFilterAll())
	if len(movements) != 1 || movements[0].Reason != models.MovementReasonSale || movements[0].Delta != -2 {
		t.Errorf("expected one sale movement of -2, got %+v", movements)
	}
}

func TestCheckoutHandler_InsufficientStockRollsBack(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	soda := mustCreateProduct(r, handler.ProductRequest{SKU: "CHK-3", Name: "Soda", Price: 2.5, Quantity: 10})
	rare := mustCreateProduct(r, handler.ProductRequest{SKU: "CHK-4", Name: "Rare", Price: 99, Quantity: 2})

	cart := createCart(r)
	doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items", handler.CartItemRequest{ProductID: soda.Id, Quantity: 2})
	doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/items", handler.CartItemRequest{ProductID: rare.Id, Quantity: 2})

	// Stock moved out from under the cart between add and checkout.
	adjustProduct(r, rare.Id, handler.QuantityAdjustmentRequest{Delta: -1})

	w := doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/checkout", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 Conflict, got %d: %s", w.Code, w.Body.String())
	}

	var resp handler.InsufficientStockResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if resp.ProductID != rare.Id || resp.Available != 1 {
		t.Errorf("expected product %d with 1 available, got %+v", rare.Id, resp)
	}

	// The soda decrement is rolled back and the cart stays open.
	sodaAfter, _ := productRepo.GetByID(soda.Id)
	if sodaAfter.Quantity != 10 {
		t.Errorf("expected soda quantity back to 10, got %d", sodaAfter.Quantity)
	}
	getW := doJSON(r, http.MethodGet, "/carts/"+cart.ID, nil)
	if getW.Code != http.StatusOK {
		t.Errorf("expected cart to survive failed checkout, got %d", getW.Code)
	}
}

func TestCheckoutHandler_EmptyCart(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	cart := createCart(r)
	w := doJSON(r, http.MethodPost, "/carts/"+cart.ID+"/checkout", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
