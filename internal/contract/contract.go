// Package contract defines the addressing scheme, resource types and column names
// of the product store.
package contract

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// Scheme is the scheme every store address uses.
	Scheme = "content"
	// Authority names the product store as a whole.
	Authority = "inventory.app"
	// PathProducts is the path segment of the product collection.
	PathProducts = "inventory"
)

// ProductsAddress addresses the whole product collection.
var ProductsAddress = Scheme + "://" + Authority + "/" + PathProducts

const (
	// ContentListType is the resource type of the product collection.
	ContentListType = "vnd.inventory.dir/" + Authority + "/" + PathProducts
	// ContentItemType is the resource type of a single product.
	ContentItemType = "vnd.inventory.item/" + Authority + "/" + PathProducts
)

// Table and column names of the product table.
const (
	TableName      = "inventory"
	ColumnID       = "_id"
	ColumnName     = "name"
	ColumnPrice    = "price"
	ColumnQuantity = "quantity"
	ColumnSold     = "sold"
	ColumnImage    = "image"
)

// WritableColumns lists the columns a write payload may carry.
var WritableColumns = []string{ColumnName, ColumnPrice, ColumnQuantity, ColumnSold, ColumnImage}

// ErrUnsupportedAddress is returned for addresses that name no known resource.
var ErrUnsupportedAddress = errors.New("unsupported address")

// Kind tells which resource shape an address names.
type Kind int

const (
	// NoMatch is returned alongside ErrUnsupportedAddress.
	NoMatch Kind = iota
	// Products is the product collection.
	Products
	// ProductItem is a single product.
	ProductItem
)

func (k Kind) String() string {
	switch k {
	case Products:
		return "products"
	case ProductItem:
		return "product"
	default:
		return "no-match"
	}
}

// ProductAddress returns the address of the product with the given identifier.
func ProductAddress(id int64) string {
	return ProductsAddress + "/" + strconv.FormatInt(id, 10)
}

// Match resolves addr to a resource kind. For ProductItem the identifier is returned too.
func Match(addr string) (Kind, int64, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return NoMatch, 0, fmt.Errorf("%w: %q: %v", ErrUnsupportedAddress, addr, err)
	}
	if u.Scheme != Scheme || u.Host != Authority || u.RawQuery != "" || u.Fragment != "" {
		return NoMatch, 0, fmt.Errorf("%w: %q", ErrUnsupportedAddress, addr)
	}

	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if segments[0] != PathProducts {
		return NoMatch, 0, fmt.Errorf("%w: %q", ErrUnsupportedAddress, addr)
	}

	switch len(segments) {
	case 1:
		return Products, 0, nil
	case 2:
		id, err := parseID(segments[1])
		if err != nil {
			return NoMatch, 0, fmt.Errorf("%w: %q: %v", ErrUnsupportedAddress, addr, err)
		}
		return ProductItem, id, nil
	default:
		return NoMatch, 0, fmt.Errorf("%w: %q", ErrUnsupportedAddress, addr)
	}
}

// ParseID returns the identifier carried by a product item address.
func ParseID(addr string) (int64, error) {
	kind, id, err := Match(addr)
	if err != nil {
		return 0, err
	}
	if kind != ProductItem {
		return 0, fmt.Errorf("%w: %q carries no identifier", ErrUnsupportedAddress, addr)
	}
	return id, nil
}

// TypeOf returns the resource type string of addr.
func TypeOf(addr string) (string, error) {
	kind, _, err := Match(addr)
	if err != nil {
		return "", err
	}
	if kind == Products {
		return ContentListType, nil
	}
	return ContentItemType, nil
}

// IsDescendant reports whether child lies strictly below parent in the address tree.
func IsDescendant(parent, child string) bool {
	parent = strings.TrimSuffix(parent, "/")
	return strings.HasPrefix(child, parent+"/") && len(child) > len(parent)+1
}

func parseID(segment string) (int64, error) {
	// only plain decimal digits, no sign
	if segment == "" || strings.TrimLeft(segment, "0123456789") != "" {
		return 0, fmt.Errorf("invalid identifier %q", segment)
	}
	return strconv.ParseInt(segment, 10, 64)
}
