package services

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"inventory/internal/contract"
	"inventory/internal/models"
	"inventory/internal/repositories"
)

// RestockPublisher forwards restock orders to other processes.
type RestockPublisher interface {
	PublishRestockOrder(order models.RestockOrder) error
}

var restockTransitions = map[string][]string{
	models.RestockPending: {models.RestockSent, models.RestockCancelled},
	models.RestockSent:    {models.RestockReceived, models.RestockCancelled},
}

// RestockService drafts supplier orders for more stock and books received stock.
type RestockService struct {
	orders        repositories.RestockOrderRepository
	products      *ProductService
	publisher     RestockPublisher
	supplierEmail string
}

// NewRestockService creates a new RestockService. publisher may be nil.
func NewRestockService(orders repositories.RestockOrderRepository, products *ProductService, publisher RestockPublisher, supplierEmail string) *RestockService {
	return &RestockService{
		orders:        orders,
		products:      products,
		publisher:     publisher,
		supplierEmail: supplierEmail,
	}
}

// RequestRestock drafts a pending order for quantity more units of a product.
// Returns ErrNotFound if the product does not exist.
func (s *RestockService) RequestRestock(productID int64, quantity int) (*models.RestockOrder, error) {
	if quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}
	product, err := s.products.Get(productID)
	if err != nil {
		return nil, err
	}

	order := &models.RestockOrder{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		Status:      models.RestockPending,
		Subject:     "Order for more " + product.Name,
		Body:        "Please place an order for " + product.Name,
	}
	order.MailtoURL = mailto(s.supplierEmail, order.Subject, order.Body)

	if err := s.orders.Create(order); err != nil {
		return nil, storeError("create restock order", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRestockOrder(*order); err != nil {
			// the order is stored; delivery to the broker is best effort
			log.Printf("Failed to publish restock order %s: %v", order.ID, err)
		}
	}
	return order, nil
}

// List returns every restock order.
func (s *RestockService) List() ([]models.RestockOrder, error) {
	orders, err := s.orders.GetAll()
	if err != nil {
		return nil, storeError("list restock orders", err)
	}
	return orders, nil
}

// Get returns one restock order. Returns ErrNotFound if it does not exist.
func (s *RestockService) Get(id string) (*models.RestockOrder, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("restock order %s: %w", id, ErrNotFound)
		}
		return nil, storeError("get restock order", err)
	}
	return order, nil
}

// UpdateStatus moves an order along its workflow. Receiving an order adds its quantity to
// the product's stock.
func (s *RestockService) UpdateStatus(id string, status string) (*models.RestockOrder, error) {
	switch status {
	case models.RestockPending, models.RestockSent, models.RestockReceived, models.RestockCancelled:
	default:
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !canTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	if status == models.RestockReceived {
		if _, err := s.products.Get(order.ProductID); err != nil {
			return nil, err
		}
	}

	if err := s.orders.UpdateStatus(id, status); err != nil {
		return nil, storeError("update restock order", err)
	}

	if status == models.RestockReceived {
		if err := s.receive(order); err != nil {
			// the stock was not added, so the order keeps its previous status
			if rbErr := s.orders.UpdateStatus(id, order.Status); rbErr != nil {
				log.Printf("Failed to restore restock order %s to %s: %v", id, order.Status, rbErr)
			}
			return nil, err
		}
	}
	log.Printf("Restock order %s for product %d is now %s", id, order.ProductID, status)
	return s.Get(id)
}

func (s *RestockService) receive(order *models.RestockOrder) error {
	rows, err := s.products.Adjust(contract.ProductAddress(order.ProductID), contract.ColumnQuantity, order.Quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %d: %w", order.ProductID, ErrNotFound)
	}
	return nil
}

func canTransition(from, to string) bool {
	for _, next := range restockTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func mailto(to, subject, body string) string {
	escape := func(s string) string {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	}
	return "mailto:" + escape(to) + "?subject=" + escape(subject) + "&body=" + escape(body)
}
