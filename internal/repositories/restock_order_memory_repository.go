package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventory/internal/models"
)

// MemoryRestockOrderRepository is an in-memory implementation of RestockOrderRepository.
type MemoryRestockOrderRepository struct {
	orders map[string]models.RestockOrder
	mu     sync.RWMutex
}

// NewMemoryRestockOrderRepository creates a new instance of MemoryRestockOrderRepository.
func NewMemoryRestockOrderRepository() *MemoryRestockOrderRepository {
	return &MemoryRestockOrderRepository{
		orders: make(map[string]models.RestockOrder),
	}
}

// GetAll returns all orders, newest first.
func (r *MemoryRestockOrderRepository) GetAll() ([]models.RestockOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.RestockOrder, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MemoryRestockOrderRepository) GetByID(id string) (*models.RestockOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("restock order %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// Create adds a new order.
func (r *MemoryRestockOrderRepository) Create(order *models.RestockOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = *order
	return nil
}

// UpdateStatus changes the status of an existing order.
func (r *MemoryRestockOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("restock order %s: %w", id, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
