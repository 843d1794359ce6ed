package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "github.com/dmarchetti/scanventory/internal/http/handlers"
)

func TestCreateProductHandler_Valid(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	barcode := "4006381333931"
	w := createProduct(r, handler.ProductRequest{
		SKU:      "LAP-001",
		Barcode:  &barcode,
		Name:     "Laptop",
		Price:    1500.0,
		Quantity: 1,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}

	var resp handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if resp.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %v", resp.Name)
	}
	if resp.SKU != "LAP-001" {
		t.Errorf("expected sku 'LAP-001', got %v", resp.SKU)
	}
	if resp.Barcode == nil || *resp.Barcode != barcode {
		t.Errorf("expected barcode %q, got %v", barcode, resp.Barcode)
	}
	if resp.Price != 1500.0 {
		t.Errorf("expected price 1500.0, got %v", resp.Price)
	}
}

func TestCreateProductHandler_Invalid(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	tests := []struct {
		name           string
		payload        handler.ProductRequest
		expectedErrors []string
	}{
		{
			name:           "Empty sku, name and price",
			payload:        handler.ProductRequest{Name: "", Price: 0.0},
			expectedErrors: []string{"SKU", "Name", "Price"},
		},
		{
			name:           "Empty name only",
			payload:        handler.ProductRequest{SKU: "X-1", Name: "", Price: 100.0},
			expectedErrors: []string{"Name"},
		},
		{
			name:           "Invalid price only",
			payload:        handler.ProductRequest{SKU: "X-2", Name: "Mouse", Price: -5.0},
			expectedErrors: []string{"Price"},
		},
		{
			name:           "Negative quantity",
			payload:        handler.ProductRequest{SKU: "X-3", Name: "Keyboard", Price: 50.0, Quantity: -1},
			expectedErrors: []string{"Quantity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := createProduct(r, tt.payload)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}

			var resp []handler.ProductValidationError
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("error decoding response: %v", err)
			}

			for _, field := range tt.expectedErrors {
				found := false
				for _, err := range resp {
					if strings.EqualFold(err.Field, field) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, but not found", field)
				}
			}
		})
	}
}

func TestCreateProductHandler_DuplicateSKU(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	mustCreateProduct(r, handler.ProductRequest{SKU: "DUP-1", Name: "First", Price: 10, Quantity: 1})

	w := createProduct(r, handler.ProductRequest{SKU: "DUP-1", Name: "Second", Price: 20, Quantity: 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 Conflict, got %d", w.Code)
	}
}

func TestCreateProductHandler_MalformedJSON(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	badJSON := `{Name: "Invalid" Price: 100 "}`
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(badJSON))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 Bad Request, got %d", w.Code)
	}
}

func TestGetProductByBarcodeHandler(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	barcode := "7898357410015"
	created := mustCreateProduct(r, handler.ProductRequest{
		SKU: "SOD-001", Barcode: &barcode, Name: "Soda Can", Price: 2.5, Quantity: 24,
	})

	req := httptest.NewRequest(http.MethodGet, "/products/barcode/"+barcode, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var resp handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if resp.Id != created.Id {
		t.Errorf("expected product %d, got %d", created.Id, resp.Id)
	}
}

func TestGetProductByBarcodeHandler_NotFound(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/products/barcode/0000000000000", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 Not Found, got %d", w.Code)
	}
}

func TestUpdateProductHandler(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	created := mustCreateProduct(r, handler.ProductRequest{SKU: "UPD-1", Name: "Old Name", Price: 10, Quantity: 5})

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/products/%d", created.Id), handler.ProductRequest{
		SKU: "UPD-1", Name: "New Name", Price: 12.5, Quantity: 5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}

	var resp handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if resp.Name != "New Name" || resp.Price != 12.5 {
		t.Errorf("update not applied: %+v", resp)
	}
}

func TestDeleteProductHandler(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	created := mustCreateProduct(r, handler.ProductRequest{SKU: "DEL-1", Name: "Doomed", Price: 1, Quantity: 1})

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/products/%d", created.Id), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 No Content, got %d", w.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/products/%d", created.Id), nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", getW.Code)
	}
}

func TestFilterProductsHandler_LowStock(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	mustCreateProduct(r, handler.ProductRequest{SKU: "LOW-1", Name: "Nearly Out", Price: 5, Quantity: 1, Threshold: 3})
	mustCreateProduct(r, handler.ProductRequest{SKU: "OK-1", Name: "Plenty", Price: 5, Quantity: 50, Threshold: 3})

	req := httptest.NewRequest(http.MethodGet, "/products/search?lowStock=true", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var resp handler.ProductsSearchResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 low-stock product, got %d", len(resp.Data))
	}
	if resp.Data[0].SKU != "LOW-1" {
		t.Errorf("expected LOW-1, got %s", resp.Data[0].SKU)
	}
	if !resp.Data[0].LowStock {
		t.Errorf("expected low_stock flag set")
	}
}

func TestProductMutationsRequireAuth(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	body, _ := json.Marshal(handler.ProductRequest{SKU: "NOAUTH", Name: "X", Price: 1, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", w.Code)
	}
}
