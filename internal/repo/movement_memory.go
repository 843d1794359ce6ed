package repo

import (
	"sync"
	"time"

	"github.com/dmarchetti/scanventory/internal/models"
)

type InMemoryMovementRepository struct {
	mu        sync.Mutex
	movements []models.Movement
	nextID    int
}

func NewInMemoryMovementRepository() *InMemoryMovementRepository {
	return &InMemoryMovementRepository{nextID: 1}
}

func (r *InMemoryMovementRepository) Log(productID, delta int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, models.Movement{
		ID:        r.nextID,
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	r.nextID++
	return nil
}

func (r *InMemoryMovementRepository) GetByProductID(productID int, mf MovementFilter) ([]models.Movement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []models.Movement
	for _, m := range r.movements {
		if m.ProductID != productID {
			continue
		}
		ts, err := time.Parse(time.RFC3339, m.CreatedAt)
		if err == nil {
			if mf.Since != nil && ts.Before(*mf.Since) {
				continue
			}
			if mf.Until != nil && ts.After(*mf.Until) {
				continue
			}
		}
		matched = append(matched, m)
	}

	// newest first, matching the Postgres ordering
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	total := len(matched)

	if mf.Limit != nil && *mf.Limit == 0 {
		return []models.Movement{}, total, nil
	}
	if mf.Offset != nil && *mf.Offset > 0 {
		if *mf.Offset >= len(matched) {
			return []models.Movement{}, total, nil
		}
		matched = matched[*mf.Offset:]
	}
	limit := defaultLimit
	if mf.Limit != nil && *mf.Limit > 0 {
		limit = min(*mf.Limit, defaultLimit)
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, total, nil
}

// AddMovement seeds a movement directly. Test helper.
func (r *InMemoryMovementRepository) AddMovement(m models.Movement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	r.nextID++
	r.movements = append(r.movements, m)
}

// Clear removes all movements. Test helper.
func (r *InMemoryMovementRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = nil
	r.nextID = 1
}
