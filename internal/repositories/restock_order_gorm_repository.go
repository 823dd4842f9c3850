package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inventory/internal/models"
)

// GORMRestockOrderRepository is a GORM implementation of RestockOrderRepository.
type GORMRestockOrderRepository struct {
	db *gorm.DB
}

// NewGORMRestockOrderRepository creates a new instance of GORMRestockOrderRepository.
func NewGORMRestockOrderRepository(db *gorm.DB) *GORMRestockOrderRepository {
	return &GORMRestockOrderRepository{
		db: db,
	}
}

// GetAll retrieves every restock order, newest first.
func (r *GORMRestockOrderRepository) GetAll() ([]models.RestockOrder, error) {
	orders := []models.RestockOrder{}
	if err := r.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get restock orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single restock order.
func (r *GORMRestockOrderRepository) GetByID(id string) (*models.RestockOrder, error) {
	var order models.RestockOrder
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("restock order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get restock order %s: %w", id, err)
	}
	return &order, nil
}

// Create stores a new restock order.
func (r *GORMRestockOrderRepository) Create(order *models.RestockOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create restock order: %w", err)
	}
	return nil
}

// UpdateStatus changes the status of a restock order.
func (r *GORMRestockOrderRepository) UpdateStatus(id string, status string) error {
	res := r.db.Model(&models.RestockOrder{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update restock order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("restock order %s: %w", id, ErrNotFound)
	}
	return nil
}
