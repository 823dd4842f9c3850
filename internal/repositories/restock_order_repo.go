package repositories

import (
	"inventory/internal/models"
)

// RestockOrderRepository defines the interface for restock order data access.
type RestockOrderRepository interface {
	GetAll() ([]models.RestockOrder, error)
	GetByID(id string) (*models.RestockOrder, error)
	Create(order *models.RestockOrder) error
	UpdateStatus(id string, status string) error
}
