package handlers_test_suite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "github.com/dmarchetti/scanventory/internal/http/handlers"
	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/scan"
)

func TestCreateScanSessionHandler_CountMode(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := createScanSession(r, scan.ModeCount, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}

	var snap scan.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("error decoding snapshot: %v", err)
	}
	if snap.State != scan.StateReady {
		t.Errorf("expected ready state, got %s", snap.State)
	}
	if snap.ID == "" {
		t.Errorf("expected a session id")
	}
}

func TestCreateScanSessionHandler_InvalidMode(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := createScanSession(r, scan.Mode("bulk"), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d", w.Code)
	}
}

func TestCreateScanSessionHandler_SaleRequiresCart(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := createScanSession(r, scan.ModeSale, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d", w.Code)
	}

	w = createScanSession(r, scan.ModeSale, "no-such-cart")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request for unknown cart, got %d", w.Code)
	}
}

func TestDecodeHandler_CountScanIncrementsStock(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	barcode := "4006381333931"
	created := mustCreateProduct(r, handler.ProductRequest{
		SKU: "CNT-1", Barcode: &barcode, Name: "Counted", Price: 1, Quantity: 7,
	})

	w := createScanSession(r, scan.ModeCount, "")
	var session scan.Snapshot
	json.NewDecoder(w.Body).Decode(&session)

	snap := decode(r, session.ID, barcode)
	if snap.State != scan.StateSuccess {
		t.Fatalf("expected success, got %s (%s)", snap.State, snap.Message)
	}
	if snap.Product == nil || snap.Product.Quantity != 8 {
		t.Fatalf("expected quantity 8 on snapshot, got %+v", snap.Product)
	}

	// A burst repeat of the same code must not commit again.
	snap = decode(r, session.ID, barcode)
	if snap.State != scan.StateSuccess {
		t.Errorf("expected unchanged success state, got %s", snap.State)
	}

	getReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/products/%d", created.Id), nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)

	var product handler.ProductResponse
	json.NewDecoder(getW.Body).Decode(&product)
	if product.Quantity != 8 {
		t.Errorf("expected stored quantity 8, got %d", product.Quantity)
	}

	movements, _, err := movementRepo.GetByProductID(created.Id, movementFilterAll())
	if err != nil {
		t.Fatalf("movement lookup failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Reason != models.MovementReasonScan {
		t.Errorf("expected reason %q, got %q", models.MovementReasonScan, movements[0].Reason)
	}
}

func TestDecodeHandler_UnknownBarcodeSuspends(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := createScanSession(r, scan.ModeCount, "")
	var session scan.Snapshot
	json.NewDecoder(w.Body).Decode(&session)

	snap := decode(r, session.ID, "0000000000000")
	if snap.State != scan.StateNotFound {
		t.Fatalf("expected not_found, got %s", snap.State)
	}
	if !strings.Contains(snap.Message, "0000000000000") {
		t.Errorf("expected message to carry the code, got %q", snap.Message)
	}

	// Decodes are dropped while the add-product prompt is up.
	snap = decode(r, session.ID, "1111111111111")
	if snap.State != scan.StateNotFound {
		t.Errorf("expected state to stay not_found, got %s", snap.State)
	}

	resumeW := doJSON(r, http.MethodPost, "/scan/sessions/"+session.ID+"/resume", nil)
	if resumeW.Code != http.StatusOK {
		t.Fatalf("expected 200 OK on resume, got %d", resumeW.Code)
	}
	var resumed scan.Snapshot
	json.NewDecoder(resumeW.Body).Decode(&resumed)
	if resumed.State != scan.StateReady {
		t.Errorf("expected ready after resume, got %s", resumed.State)
	}
}

func TestDecodeHandler_CameraErrorAndRetry(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := createScanSession(r, scan.ModeCount, "")
	var session scan.Snapshot
	json.NewDecoder(w.Body).Decode(&session)

	errW := doJSON(r, http.MethodPost, "/scan/sessions/"+session.ID+"/decode",
		handler.DecodeRequest{Error: "camera permission denied"})
	if errW.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", errW.Code)
	}
	var snap scan.Snapshot
	json.NewDecoder(errW.Body).Decode(&snap)
	if snap.State != scan.StateError {
		t.Fatalf("expected error state, got %s", snap.State)
	}

	retryW := doJSON(r, http.MethodPost, "/scan/sessions/"+session.ID+"/retry", nil)
	if retryW.Code != http.StatusOK {
		t.Fatalf("expected 200 OK on retry, got %d", retryW.Code)
	}
	var retried scan.Snapshot
	json.NewDecoder(retryW.Body).Decode(&retried)
	if retried.State != scan.StateReady {
		t.Errorf("expected ready after retry, got %s", retried.State)
	}
}

func TestRetryHandler_OnlyValidFromError(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := createScanSession(r, scan.ModeCount, "")
	var session scan.Snapshot
	json.NewDecoder(w.Body).Decode(&session)

	retryW := doJSON(r, http.MethodPost, "/scan/sessions/"+session.ID+"/retry", nil)
	if retryW.Code != http.StatusConflict {
		t.Fatalf("expected 409 Conflict, got %d", retryW.Code)
	}
}

func TestSaleScanAddsToCart(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	barcode := "7898357410015"
	mustCreateProduct(r, handler.ProductRequest{
		SKU: "SALE-1", Barcode: &barcode, Name: "Soda Can", Price: 2.5, Quantity: 10,
	})

	cart := createCart(r)

	w := createScanSession(r, scan.ModeSale, cart.ID)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	var session scan.Snapshot
	json.NewDecoder(w.Body).Decode(&session)

	snap := decode(r, session.ID, barcode)
	if snap.State != scan.StateSuccess {
		t.Fatalf("expected success, got %s (%s)", snap.State, snap.Message)
	}

	getW := doJSON(r, http.MethodGet, "/carts/"+cart.ID, nil)
	var updated models.Cart
	json.NewDecoder(getW.Body).Decode(&updated)
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 1 {
		t.Fatalf("expected one cart item with quantity 1, got %+v", updated.Items)
	}
	if updated.Items[0].UnitPrice != 2.5 {
		t.Errorf("expected unit price snapshot 2.5, got %v", updated.Items[0].UnitPrice)
	}
}

func TestCloseScanSessionHandler(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	w := createScanSession(r, scan.ModeCount, "")
	var session scan.Snapshot
	json.NewDecoder(w.Body).Decode(&session)

	closeW := doJSON(r, http.MethodDelete, "/scan/sessions/"+session.ID, nil)
	if closeW.Code != http.StatusNoContent {
		t.Fatalf("expected 204 No Content, got %d", closeW.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/scan/sessions/"+session.ID, nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", getW.Code)
	}
}

func TestScanHistoryHandler_NoRedisConfigured(t *testing.T) {
	t.Cleanup(clearAll)
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/scan/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp handler.ScanHistoryResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if len(resp.Data) != 0 {
		t.Errorf("expected empty history, got %d entries", len(resp.Data))
	}
}
