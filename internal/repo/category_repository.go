package repo

import "github.com/dmarchetti/scanventory/internal/models"

// CategoryRepository defines the interface for category data operations.
type CategoryRepository interface {
	Create(category models.Category) (models.Category, error)
	GetAll() ([]models.Category, error)
	GetByID(id int) (models.Category, error)
	Update(category models.Category) (models.Category, error)
	Delete(id int) error
}
