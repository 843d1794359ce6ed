package models

import "time"

// ScanEvent is the record of one committed scan. It is ephemeral: the only
// durable trace is the best-effort history strip and the movement ledger.
type ScanEvent struct {
	Barcode     string    `json:"barcode"`
	ProductID   int       `json:"product_id,omitempty"`
	ProductName string    `json:"product_name,omitempty"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	ScannedAt   time.Time `json:"scanned_at"`
}
