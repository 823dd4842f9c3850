package repositories

import (
	"errors"

	"inventory/internal/models"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("record not found")

// ProductRepository defines store-level access to the product table.
// Values handed to Update are already validated and normalized.
type ProductRepository interface {
	Find(sel models.Selection, sort models.Sort) ([]models.Product, error)
	Create(product *models.Product) error
	Update(sel models.Selection, values models.Values) (int64, error)
	// Increment adds delta to an integer column of every matching product whose result
	// stays non-negative, and returns the number of rows changed.
	Increment(sel models.Selection, column string, delta int) (int64, error)
	Delete(sel models.Selection) (int64, error)
}
