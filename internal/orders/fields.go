package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// cartItem is one decoded entry of a checkout cart. Storefront clients send
// several shapes for the same line, so every logical field is read through
// an ordered list of candidate paths; the first usable value wins.
type cartItem map[string]any

type fieldPath []string

var (
	identifierPaths = []fieldPath{{"id"}, {"productId"}, {"product_id"}}
	namePaths       = []fieldPath{{"name"}, {"title"}, {"product", "name"}}
	pricePaths      = []fieldPath{{"price"}, {"product", "price"}}
	quantityPaths   = []fieldPath{{"quantity"}}
	imagePaths      = []fieldPath{{"image"}, {"image_url"}, {"imageUrl"}, {"product", "image"}}
)

func (c cartItem) lookup(path fieldPath) (any, bool) {
	var current any = map[string]any(c)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func (c cartItem) firstString(paths []fieldPath) (string, bool) {
	for _, path := range paths {
		v, ok := c.lookup(path)
		if !ok {
			continue
		}
		if s, ok := stringValue(v); ok {
			return s, true
		}
	}
	return "", false
}

func (c cartItem) firstNumber(paths []fieldPath) (decimal.Decimal, bool) {
	for _, path := range paths {
		v, ok := c.lookup(path)
		if !ok {
			continue
		}
		if d, ok := numberValue(v); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func extractIdentifier(c cartItem) (string, bool) { return c.firstString(identifierPaths) }

func extractName(c cartItem) (string, bool) { return c.firstString(namePaths) }

func extractImage(c cartItem) (string, bool) { return c.firstString(imagePaths) }

// extractPrice never reports a negative price.
func extractPrice(c cartItem) (decimal.Decimal, bool) {
	price, ok := c.firstNumber(pricePaths)
	if !ok || price.IsNegative() {
		return decimal.Zero, false
	}
	return price, true
}

// extractQuantity truncates fractional quantities and never reports less
// than one.
func extractQuantity(c cartItem) (int, bool) {
	qty, ok := c.firstNumber(quantityPaths)
	if !ok {
		return 0, false
	}
	n := qty.Truncate(0).IntPart()
	if n < 1 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func stringValue(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}

	s = strings.TrimSpace(s)
	return s, s != ""
}

func numberValue(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	}
	return decimal.Zero, false
}
