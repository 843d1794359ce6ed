package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmarchetti/scanventory/internal/auth"
	api "github.com/dmarchetti/scanventory/internal/http"
	handler "github.com/dmarchetti/scanventory/internal/http/handlers"
	rl "github.com/dmarchetti/scanventory/internal/http/rate_limiter"
	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
	"github.com/dmarchetti/scanventory/internal/scan"
)

var (
	token        string
	productRepo  *repo.InMemoryProductRepository
	movementRepo *repo.InMemoryMovementRepository
	cartRepo     *repo.InMemoryCartRepository
	categoryRepo *repo.InMemoryCategoryRepository
)

func init() {
	auth.Configure("test-secret", 15*time.Minute)
	setupTestRepos("secret123")
	r := newRouter()

	var err error
	token, err = generateToken(r, "admin", "secret123")
	if err != nil {
		panic(fmt.Sprintf("error generating token: %v", err))
	}
}

func newRouter() http.Handler {
	return api.NewRouter("uploads")
}

func setupTestRepos(password string) {
	productRepo = repo.NewInMemoryProductRepository()
	handler.SetProductRepo(productRepo)

	movementRepo = repo.NewInMemoryMovementRepository()
	handler.SetMovementRepo(movementRepo)

	cartRepo = repo.NewInMemoryCartRepository()
	handler.SetCartRepo(cartRepo)

	categoryRepo = repo.NewInMemoryCategoryRepository()
	handler.SetCategoryRepo(categoryRepo)

	userRepo := repo.NewInMemoryUserRepository()
	handler.SetUserRepo(userRepo)

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	userRepo.CreateUser(models.User{
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         "admin",
	})

	metricsRepo := repo.NewInMemoryMetricsRepository()
	handler.SetMetricsRepo(metricsRepo)
	metricsRepo.SetRepositories(productRepo, movementRepo)

	handler.SetScanManager(scan.NewManager(productRepo, movementRepo, cartRepo, nil, 0, 0))
}

func clearAll() {
	productRepo.Clear()
	movementRepo.Clear()
	cartRepo.Clear()
	categoryRepo.Clear()
	rl.CleanupAllVisitors()
}

func generateToken(r http.Handler, username, password string) (string, error) {
	payload := handler.UserLogin{Username: username, Password: password}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.LoginResult
	err := json.NewDecoder(w.Body).Decode(&resp)
	if err != nil {
		return "", fmt.Errorf("token decoding failed: %v", err)
	}
	return resp.Token, nil
}

func doJSON(r http.Handler, method, url string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createProduct(r http.Handler, p handler.ProductRequest) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, "/products", p)
}

func mustCreateProduct(r http.Handler, p handler.ProductRequest) handler.ProductResponse {
	w := createProduct(r, p)
	if w.Code != http.StatusCreated {
		panic(fmt.Sprintf("product creation failed with %d: %s", w.Code, w.Body.String()))
	}
	var resp handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		panic(fmt.Sprintf("error decoding product response: %v", err))
	}
	return resp
}

func adjustProduct(r http.Handler, productID int, adj handler.QuantityAdjustmentRequest) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, fmt.Sprintf("/products/%d/adjust-quantity", productID), adj)
}

func createCart(r http.Handler) models.Cart {
	w := doJSON(r, http.MethodPost, "/carts", nil)
	if w.Code != http.StatusCreated {
		panic(fmt.Sprintf("cart creation failed with %d: %s", w.Code, w.Body.String()))
	}
	var cart models.Cart
	if err := json.NewDecoder(w.Body).Decode(&cart); err != nil {
		panic(fmt.Sprintf("error decoding cart: %v", err))
	}
	return cart
}

func createScanSession(r http.Handler, mode scan.Mode, cartID string) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, "/scan/sessions", handler.CreateScanSessionRequest{
		Mode:   mode,
		CartID: cartID,
	})
}

func decode(r http.Handler, sessionID, code string) scan.Snapshot {
	w := doJSON(r, http.MethodPost, "/scan/sessions/"+sessionID+"/decode",
		handler.DecodeRequest{Code: code})
	if w.Code != http.StatusOK {
		panic(fmt.Sprintf("decode failed with %d: %s", w.Code, w.Body.String()))
	}
	var snap scan.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		panic(fmt.Sprintf("error decoding snapshot: %v", err))
	}
	return snap
}

func multipartCSV(csvContent string, filename string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, _ := writer.CreateFormFile("file", filename)
	part.Write([]byte(csvContent))

	writer.Close()
	return &buf, writer.FormDataContentType()
}

func addMovement(movement models.Movement) {
	movementRepo.AddMovement(movement)
}

func movementFilterAll() repo.MovementFilter {
	return repo.MovementFilter{}
}
