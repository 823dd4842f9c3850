package models

import (
	"github.com/shopspring/decimal"

	"inventory/internal/contract"
)

// Product represents one inventory item.
type Product struct {
	ID       int64           `json:"id" gorm:"column:_id;primaryKey;autoIncrement"`
	Name     string          `json:"name" gorm:"column:name;type:text;not null"`
	Price    decimal.Decimal `json:"price" gorm:"column:price;type:decimal(10,2);not null"`
	Quantity int             `json:"quantity" gorm:"column:quantity;not null;default:0"`
	Sold     int             `json:"sold" gorm:"column:sold;not null;default:0"`
	Image    []byte          `json:"image,omitempty" gorm:"column:image"`
}

// TableName keeps the table name fixed regardless of GORM's naming strategy.
func (Product) TableName() string {
	return contract.TableName
}

// Values is a write payload keyed by column name. Only the keys present are written.
type Values map[string]any

// Has reports whether column is present in the payload.
func (v Values) Has(column string) bool {
	_, ok := v[column]
	return ok
}

// Selection narrows the rows a query, bulk update or bulk delete applies to.
// The zero value selects every row.
type Selection struct {
	ID           *int64
	NameContains string
	MaxQuantity  *int
}

// IsZero reports whether the selection matches every row.
func (s Selection) IsZero() bool {
	return s.ID == nil && s.NameContains == "" && s.MaxQuantity == nil
}

// Sort orders query results by one column.
type Sort struct {
	Column     string
	Descending bool
}
