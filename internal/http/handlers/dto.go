package handlers

import (
	"time"

	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
	"github.com/dmarchetti/scanventory/internal/scan"
)

type ProductRequest struct {
	Id         int     `json:"id,omitempty"`
	SKU        string  `json:"sku"`
	Barcode    *string `json:"barcode,omitempty"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	CostPrice  float64 `json:"cost_price,omitempty"`
	Quantity   int     `json:"quantity"`
	Threshold  int     `json:"threshold"`
	CategoryID *int    `json:"category_id,omitempty"`
}

type ProductResponse struct {
	Id         int     `json:"id"`
	SKU        string  `json:"sku"`
	Barcode    *string `json:"barcode,omitempty"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	CostPrice  float64 `json:"cost_price,omitempty"`
	Quantity   int     `json:"quantity"`
	Threshold  int     `json:"threshold"`
	CategoryID *int    `json:"category_id,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	LowStock   bool    `json:"low_stock,omitempty"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		Id:         p.ID,
		SKU:        p.SKU,
		Barcode:    p.Barcode,
		Name:       p.Name,
		Price:      p.Price,
		CostPrice:  p.CostPrice,
		Quantity:   p.Quantity,
		Threshold:  p.Threshold,
		CategoryID: p.CategoryID,
		ImageURL:   p.ImageURL,
		LowStock:   p.Quantity < p.Threshold,
	}
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type ProductsSearchResult struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta,omitempty"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type QuantityAdjustmentRequest struct {
	Delta int `json:"delta"` // can be positive or negative
}

type MovementResponse struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type MovementsSearchResult struct {
	Data []MovementResponse `json:"data"`
	Meta Meta               `json:"meta,omitempty"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RegisterResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type RegisterAsAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ImportProductsResult struct {
	ImportedProductsCount int                      `json:"imported"`
	Errors                []ProductValidationError `json:"errors"`
}

type CreateScanSessionRequest struct {
	Mode   scan.Mode `json:"mode"`
	CartID string    `json:"cart_id,omitempty"`
}

// DecodeRequest mirrors the camera decoder's two callbacks: a decoded code,
// or a decoder/camera error.
type DecodeRequest struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type ScanHistoryResult struct {
	Data []models.ScanEvent `json:"data"`
}

type CartItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type CheckoutResult struct {
	CartID string    `json:"cart_id"`
	Total  float64   `json:"total"`
	Items  int       `json:"items"`
	SoldAt time.Time `json:"sold_at"`
}

type InsufficientStockResponse struct {
	Error     string `json:"error"`
	ProductID int    `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type DashboardMetricsResponse struct {
	TotalProducts    int                   `json:"total_products"`
	TotalMovements   int                   `json:"total_movements"`
	LowStockCount    int                   `json:"low_stock_count"`
	MostMovedProduct repo.MostMovedProduct `json:"most_moved_product"`
	ScansToday       int                   `json:"scans_today"`
}
