package services

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"inventory/internal/contract"
	"inventory/internal/models"
	"inventory/internal/notify"
	"inventory/internal/repositories"
)

var sortableColumns = map[string]bool{
	"":                      true,
	contract.ColumnID:       true,
	contract.ColumnName:     true,
	contract.ColumnPrice:    true,
	contract.ColumnQuantity: true,
	contract.ColumnSold:     true,
}

// ProductService is the gateway between callers and the product table. It resolves
// addresses, validates write payloads and notifies observers after every mutation that
// changed at least one row. It holds no state besides its collaborators.
type ProductService struct {
	repo      repositories.ProductRepository
	observers *notify.Registry
	validate  *validator.Validate
}

// NewProductService creates a new ProductService. A nil registry gets a private one.
func NewProductService(repo repositories.ProductRepository, observers *notify.Registry) *ProductService {
	if observers == nil {
		observers = notify.NewRegistry()
	}
	return &ProductService{
		repo:      repo,
		observers: observers,
		validate:  newValidator(),
	}
}

// Query returns the products at address. For the collection address sel narrows the rows;
// for an item address sel is replaced by the address's identifier.
// An empty result is not an error.
func (s *ProductService) Query(address string, sel models.Selection, sort models.Sort) ([]models.Product, error) {
	kind, id, err := contract.Match(address)
	if err != nil {
		return nil, err
	}
	if !sortableColumns[sort.Column] {
		return nil, invalid("sort", fmt.Sprintf("cannot sort by %q", sort.Column))
	}
	if kind == contract.ProductItem {
		sel = models.Selection{ID: &id}
	}

	products, err := s.repo.Find(sel, sort)
	if err != nil {
		return nil, storeError("query "+address, err)
	}
	return products, nil
}

// List returns every product matching sel.
func (s *ProductService) List(sel models.Selection, sort models.Sort) ([]models.Product, error) {
	return s.Query(contract.ProductsAddress, sel, sort)
}

// Get returns the product with the given identifier.
// Returns ErrNotFound if no such product exists.
func (s *ProductService) Get(id int64) (*models.Product, error) {
	if id < 0 {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return s.GetAt(contract.ProductAddress(id))
}

// GetAt returns the product named by an item address.
// Returns ErrNotFound if no such product exists.
func (s *ProductService) GetAt(address string) (*models.Product, error) {
	kind, id, err := contract.Match(address)
	if err != nil {
		return nil, err
	}
	if kind != contract.ProductItem {
		return nil, fmt.Errorf("%w: %q does not name a single product", contract.ErrUnsupportedAddress, address)
	}

	products, err := s.Query(address, models.Selection{}, models.Sort{})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return &products[0], nil
}

// Insert validates values, stores a new product and returns its identifier.
// Only the collection address accepts inserts. Quantity and sold default to 0.
func (s *ProductService) Insert(address string, values models.Values) (int64, error) {
	kind, _, err := contract.Match(address)
	if err != nil {
		return 0, err
	}
	if kind != contract.Products {
		return 0, fmt.Errorf("%w: insertion is not supported for %q", contract.ErrUnsupportedAddress, address)
	}

	normalized, err := s.normalize(values, true)
	if err != nil {
		return 0, err
	}

	product := productFromValues(normalized)
	if err := s.repo.Create(&product); err != nil {
		log.Printf("Failed to insert row for %s: %v", address, err)
		return 0, storeError("insert", err)
	}

	s.observers.Notify(contract.ProductAddress(product.ID))
	return product.ID, nil
}

// Update writes the fields present in values. An item address updates that product; the
// collection address updates every product matching sel. Returns the number of rows
// changed. An empty payload is a no-op that never reaches the store.
func (s *ProductService) Update(address string, values models.Values, sel models.Selection) (int64, error) {
	kind, id, err := contract.Match(address)
	if err != nil {
		return 0, err
	}

	normalized, err := s.normalize(values, false)
	if err != nil {
		return 0, err
	}
	if len(normalized) == 0 {
		return 0, nil
	}

	if kind == contract.ProductItem {
		sel = models.Selection{ID: &id}
	}
	rows, err := s.repo.Update(sel, normalized)
	if err != nil {
		log.Printf("Failed to update rows for %s: %v", address, err)
		return 0, storeError("update", err)
	}

	if rows > 0 {
		s.observers.Notify(address)
	}
	return rows, nil
}

// Adjust adds delta to the quantity or sold count at address in one store operation.
// Rows whose count would drop below zero are left alone. Returns the number of rows changed.
func (s *ProductService) Adjust(address string, column string, delta int) (int64, error) {
	kind, id, err := contract.Match(address)
	if err != nil {
		return 0, err
	}
	if column != contract.ColumnQuantity && column != contract.ColumnSold {
		return 0, invalid(column, "cannot be adjusted")
	}
	if delta == 0 {
		return 0, nil
	}

	sel := models.Selection{}
	if kind == contract.ProductItem {
		sel.ID = &id
	}
	rows, err := s.repo.Increment(sel, column, delta)
	if err != nil {
		log.Printf("Failed to adjust %s for %s: %v", column, address, err)
		return 0, storeError("adjust", err)
	}

	if rows > 0 {
		s.observers.Notify(address)
	}
	return rows, nil
}

// Delete removes the product at an item address, or every product matching sel for the
// collection address. Matching nothing is not an error.
func (s *ProductService) Delete(address string, sel models.Selection) (int64, error) {
	kind, id, err := contract.Match(address)
	if err != nil {
		return 0, err
	}
	if kind == contract.ProductItem {
		sel = models.Selection{ID: &id}
	}

	rows, err := s.repo.Delete(sel)
	if err != nil {
		log.Printf("Failed to delete rows for %s: %v", address, err)
		return 0, storeError("delete", err)
	}

	if rows > 0 {
		s.observers.Notify(address)
	}
	return rows, nil
}

// Type returns the resource type string of address.
func (s *ProductService) Type(address string) (string, error) {
	return contract.TypeOf(address)
}

// Observe registers observer for changes at address. See notify.Registry.Register.
func (s *ProductService) Observe(address string, descendants bool, observer notify.Observer) func() {
	return s.observers.Register(address, descendants, observer)
}

func productFromValues(values models.Values) models.Product {
	var p models.Product
	for column, value := range values {
		switch column {
		case contract.ColumnName:
			p.Name = value.(string)
		case contract.ColumnPrice:
			p.Price = value.(decimal.Decimal)
		case contract.ColumnQuantity:
			p.Quantity = value.(int)
		case contract.ColumnSold:
			p.Sold = value.(int)
		case contract.ColumnImage:
			p.Image = value.([]byte)
		}
	}
	return p
}
