package models

// Movement reasons, stored verbatim in the ledger.
const (
	MovementReasonScan   = "scan"
	MovementReasonSale   = "sale"
	MovementReasonManual = "manual"
	MovementReasonImport = "import"
)

type Movement struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}
