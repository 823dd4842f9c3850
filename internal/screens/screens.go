// Package screens holds the presentation logic of the product list and the product
// editor, independent of any rendering toolkit. Both screens reach the store only through
// Gateway and report outcomes through a Notifier.
package screens

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"inventory/internal/models"
	"inventory/internal/notify"
)

// User-visible messages.
const (
	MsgImageNotSelected = "Please select an image"
	MsgNoInformation    = "Please enter product information"
	MsgInsertFailed     = "Error saving product"
	MsgInsertOK         = "Product saved"
	MsgUpdateFailed     = "Error updating product"
	MsgUpdateOK         = "Product updated"
	MsgDeleteFailed     = "Error deleting product"
	MsgDeleteOK         = "Product deleted"
	MsgNothingToDelete  = "Nothing to delete"
	MsgNoInventory      = "No inventory available"
	MsgLoadFailed       = "Error loading product"
	MsgListFailed       = "Error loading products"
	MsgOrderFailed      = "Error placing order"
	MsgOrderPlaced      = "Restock order drafted"
	MsgBadQuantity      = "Quantity must be a whole number"
)

// Gateway is the product store as the screens see it.
type Gateway interface {
	GetAt(address string) (*models.Product, error)
	List(sel models.Selection, sort models.Sort) ([]models.Product, error)
	Insert(address string, values models.Values) (int64, error)
	Update(address string, values models.Values, sel models.Selection) (int64, error)
	Delete(address string, sel models.Selection) (int64, error)
	Observe(address string, descendants bool, observer notify.Observer) func()
}

// Notifier shows a short, non-blocking message to the user.
type Notifier interface {
	Show(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Show calls f(message).
func (f NotifierFunc) Show(message string) { f(message) }

// FormatPrice renders a price the way both screens display it.
func FormatPrice(price decimal.Decimal) string {
	return "$" + price.StringFixed(2)
}

// parseCount reads a quantity field; a blank field counts as zero.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
