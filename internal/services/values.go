package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"inventory/internal/contract"
	"inventory/internal/models"
)

func newValidator() *validator.Validate {
	v := validator.New()
	// lets numeric tags such as gte=0 apply to decimal prices
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// normalize validates a write payload and converts every value to the type stored in its
// column. On insert, name and price are required.
func (s *ProductService) normalize(values models.Values, creating bool) (models.Values, error) {
	var unknown []string
	for column := range values {
		if !slices.Contains(contract.WritableColumns, column) {
			unknown = append(unknown, column)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, invalid(unknown[0], "unknown field")
	}

	if creating {
		for _, column := range []string{contract.ColumnName, contract.ColumnPrice} {
			if !values.Has(column) {
				return nil, invalid(column, "is required")
			}
		}
	}

	out := make(models.Values, len(values))
	for _, column := range contract.WritableColumns {
		value, ok := values[column]
		if !ok {
			continue
		}

		var err error
		switch column {
		case contract.ColumnName:
			out[column], err = s.normalizeName(value)
		case contract.ColumnPrice:
			out[column], err = s.normalizePrice(value)
		case contract.ColumnQuantity, contract.ColumnSold:
			out[column], err = s.normalizeCount(column, value)
		case contract.ColumnImage:
			out[column], err = normalizeImage(value)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *ProductService) normalizeName(value any) (string, error) {
	if value == nil {
		return "", invalid(contract.ColumnName, "must not be empty")
	}
	name, err := cast.ToStringE(value)
	if err != nil {
		return "", invalid(contract.ColumnName, "must be text")
	}
	name = strings.TrimSpace(name)
	if err := s.validate.Var(name, "required"); err != nil {
		return "", invalid(contract.ColumnName, "must not be empty")
	}
	return name, nil
}

func (s *ProductService) normalizePrice(value any) (decimal.Decimal, error) {
	price, err := toDecimal(value)
	if err != nil {
		return decimal.Decimal{}, invalid(contract.ColumnPrice, "must be a number")
	}
	if err := s.validate.Var(price, "gte=0"); err != nil {
		return decimal.Decimal{}, invalid(contract.ColumnPrice, "must not be negative")
	}
	return price, nil
}

func (s *ProductService) normalizeCount(column string, value any) (int, error) {
	n, err := toInt(value)
	if errors.Is(err, errOutOfRange) {
		return 0, invalid(column, "is out of range")
	}
	if err != nil {
		return 0, invalid(column, "must be a whole number")
	}
	if err := s.validate.Var(n, "gte=0"); err != nil {
		return 0, invalid(column, "must not be negative")
	}
	return n, nil
}

func normalizeImage(value any) ([]byte, error) {
	switch img := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return img, nil
	default:
		return nil, invalid(contract.ColumnImage, fmt.Sprintf("unsupported type %T", value))
	}
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Decimal{}, fmt.Errorf("missing value")
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Decimal{}, fmt.Errorf("missing value")
		}
		return *v, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, fmt.Errorf("not a finite number")
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Decimal{}, fmt.Errorf("not a finite number")
		}
		return decimal.NewFromFloat32(v), nil
	case bool:
		return decimal.Decimal{}, fmt.Errorf("not a number")
	default:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromInt(n), nil
	}
}

var errOutOfRange = errors.New("out of range")

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case string:
		return parseWhole(strings.TrimSpace(v))
	case json.Number:
		return parseWhole(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, fmt.Errorf("not a whole number")
		}
		if v >= float64(math.MaxInt) || v < float64(math.MinInt) {
			return 0, errOutOfRange
		}
		return int(v), nil
	case float32:
		return toInt(float64(v))
	case decimal.Decimal:
		return wholeFromDecimal(v)
	case bool:
		return 0, fmt.Errorf("not a number")
	default:
		return cast.ToIntE(value)
	}
}

// parseWhole accepts any decimal spelling of a whole number, such as "5" or "5.0".
func parseWhole(s string) (int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return wholeFromDecimal(d)
}

func wholeFromDecimal(d decimal.Decimal) (int, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("not a whole number")
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt)) || d.LessThan(decimal.NewFromInt(math.MinInt)) {
		return 0, errOutOfRange
	}
	return int(d.IntPart()), nil
}
