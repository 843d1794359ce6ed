package repo

import (
	"time"

	"github.com/dmarchetti/scanventory/internal/models"
)

type MovementFilter struct {
	Since  *time.Time
	Until  *time.Time
	Offset *int
	Limit  *int
}

// MovementRepository is the append-only stock ledger.
type MovementRepository interface {
	Log(productID, delta int, reason string) error
	GetByProductID(productID int, mf MovementFilter) ([]models.Movement, int, error)
}
