package repositories

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inventory/internal/contract"
	"inventory/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Find retrieves the products matching sel, ordered by sort.
func (r *GORMProductRepository) Find(sel models.Selection, sort models.Sort) ([]models.Product, error) {
	column := sort.Column
	if column == "" {
		column = contract.ColumnID
	}

	products := []models.Product{}
	q := applySelection(r.db, sel).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: sort.Descending})
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return products, nil
}

// Create inserts a new product; the store assigns its ID.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes values to every product matching sel and returns the number of rows changed.
func (r *GORMProductRepository) Update(sel models.Selection, values models.Values) (int64, error) {
	res := applySelection(r.session(sel), sel).Model(&models.Product{}).Updates(map[string]interface{}(values))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Increment adds delta to column in a single statement, so concurrent writers cannot
// lose each other's changes.
func (r *GORMProductRepository) Increment(sel models.Selection, column string, delta int) (int64, error) {
	if column != contract.ColumnQuantity && column != contract.ColumnSold {
		return 0, fmt.Errorf("column %q cannot be incremented", column)
	}
	res := applySelection(r.db, sel).
		Model(&models.Product{}).
		Where(column+" + ? >= 0", delta).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", column, res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes every product matching sel and returns the number of rows removed.
func (r *GORMProductRepository) Delete(sel models.Selection) (int64, error) {
	res := applySelection(r.session(sel), sel).Delete(&models.Product{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// session allows statements without a WHERE clause when the selection is empty.
func (r *GORMProductRepository) session(sel models.Selection) *gorm.DB {
	if sel.IsZero() {
		return r.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	return r.db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applySelection(q *gorm.DB, sel models.Selection) *gorm.DB {
	if sel.ID != nil {
		q = q.Where(contract.ColumnID+" = ?", *sel.ID)
	}
	if sel.NameContains != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(sel.NameContains)) + "%"
		q = q.Where("LOWER("+contract.ColumnName+") LIKE ? ESCAPE '\\'", pattern)
	}
	if sel.MaxQuantity != nil {
		q = q.Where(contract.ColumnQuantity+" <= ?", *sel.MaxQuantity)
	}
	return q
}
