package repositories

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"inventory/internal/contract"
	"inventory/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// Identifiers come from a counter and are never reused.
type MemoryProductRepository struct {
	products map[int64]models.Product
	lastID   int64
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[int64]models.Product),
	}
}

// Find returns the products matching sel, ordered by sort.
func (r *MemoryProductRepository) Find(sel models.Selection, sort models.Sort) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(p, sel) {
			productList = append(productList, clone(p))
		}
	}

	compare, err := comparator(sort.Column)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(productList, func(a, b models.Product) int {
		c := compare(a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if sort.Descending {
			return -c
		}
		return c
	})
	return productList, nil
}

// Create adds a new product and assigns its ID.
func (r *MemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	product.ID = r.lastID
	r.products[product.ID] = clone(*product)
	return nil
}

// Update applies values to every matching product.
func (r *MemoryProductRepository) Update(sel models.Selection, values models.Values) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated []models.Product
	for _, p := range r.products {
		if !matches(p, sel) {
			continue
		}
		if err := apply(&p, values); err != nil {
			return 0, err
		}
		updated = append(updated, p)
	}
	// all-or-nothing: nothing is stored until every row applied cleanly
	for _, p := range updated {
		r.products[p.ID] = p
	}
	return int64(len(updated)), nil
}

// Increment adds delta to column of every matching product whose result stays non-negative.
func (r *MemoryProductRepository) Increment(sel models.Selection, column string, delta int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, p := range r.products {
		if !matches(p, sel) {
			continue
		}
		var field *int
		switch column {
		case contract.ColumnQuantity:
			field = &p.Quantity
		case contract.ColumnSold:
			field = &p.Sold
		default:
			return 0, fmt.Errorf("column %q cannot be incremented", column)
		}
		if *field+delta < 0 {
			continue
		}
		*field += delta
		r.products[id] = p
		n++
	}
	return n, nil
}

// Delete removes every matching product.
func (r *MemoryProductRepository) Delete(sel models.Selection) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, p := range r.products {
		if matches(p, sel) {
			delete(r.products, id)
			n++
		}
	}
	return n, nil
}

func matches(p models.Product, sel models.Selection) bool {
	if sel.ID != nil && p.ID != *sel.ID {
		return false
	}
	if sel.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(sel.NameContains)) {
		return false
	}
	if sel.MaxQuantity != nil && p.Quantity > *sel.MaxQuantity {
		return false
	}
	return true
}

func apply(p *models.Product, values models.Values) error {
	for column, value := range values {
		var ok bool
		switch column {
		case contract.ColumnName:
			p.Name, ok = value.(string)
		case contract.ColumnPrice:
			p.Price, ok = value.(decimal.Decimal)
		case contract.ColumnQuantity:
			p.Quantity, ok = value.(int)
		case contract.ColumnSold:
			p.Sold, ok = value.(int)
		case contract.ColumnImage:
			var image []byte
			image, ok = value.([]byte)
			if value == nil {
				ok = true
			}
			p.Image = bytes.Clone(image)
		}
		if !ok {
			return fmt.Errorf("failed to update product %d: cannot store %T in column %q", p.ID, value, column)
		}
	}
	return nil
}

func comparator(column string) (func(a, b models.Product) int, error) {
	switch column {
	case "", contract.ColumnID:
		return func(a, b models.Product) int { return cmp.Compare(a.ID, b.ID) }, nil
	case contract.ColumnName:
		return func(a, b models.Product) int { return strings.Compare(a.Name, b.Name) }, nil
	case contract.ColumnPrice:
		return func(a, b models.Product) int { return a.Price.Cmp(b.Price) }, nil
	case contract.ColumnQuantity:
		return func(a, b models.Product) int { return cmp.Compare(a.Quantity, b.Quantity) }, nil
	case contract.ColumnSold:
		return func(a, b models.Product) int { return cmp.Compare(a.Sold, b.Sold) }, nil
	default:
		return nil, fmt.Errorf("failed to query products: cannot sort by %q", column)
	}
}

func clone(p models.Product) models.Product {
	p.Image = bytes.Clone(p.Image)
	return p
}
