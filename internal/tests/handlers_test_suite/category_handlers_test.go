package handlers_test_suite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	handler "github.com/dmarchetti/scanventory/internal/http/handlers"
	"github.com/dmarchetti/scanventory/internal/models"
)

func TestCategoryCRUD(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := doJSON(r, http.MethodPost, "/categories", handler.CategoryRequest{
		Name: "Beverages", Description: "Drinks and sodas",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Category
	json.NewDecoder(w.Body).Decode(&created)
	if created.Name != "Beverages" {
		t.Errorf("expected name 'Beverages', got %q", created.Name)
	}

	w = doJSON(r, http.MethodPut, fmt.Sprintf("/categories/%d", created.ID), handler.CategoryRequest{
		Name: "Drinks",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK on update, got %d", w.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/categories", nil)
	listW := httptest.NewRecorder()
	r.ServeHTTP(listW, listReq)

	var categories []models.Category
	json.NewDecoder(listW.Body).Decode(&categories)
	if len(categories) != 1 || categories[0].Name != "Drinks" {
		t.Fatalf("expected one category 'Drinks', got %+v", categories)
	}

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/categories/%d", created.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 No Content, got %d", w.Code)
	}
}

func TestCreateCategoryHandler_EmptyName(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := doJSON(r, http.MethodPost, "/categories", handler.CategoryRequest{Name: "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d", w.Code)
	}
}
