package models

// Product represents a product entity in the inventory catalog.
// Quantity never goes negative; every mutation that could drive it below
// zero is rejected at the store level.
type Product struct {
	ID         int     `json:"id"`
	SKU        string  `json:"sku"`
	Barcode    *string `json:"barcode,omitempty"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	CostPrice  float64 `json:"cost_price"`
	Quantity   int     `json:"quantity"`
	Threshold  int     `json:"threshold"`
	CategoryID *int    `json:"category_id,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}
