package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

func decodeCart(t *testing.T, raw string) []any {
	t.Helper()

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var items []any
	if err := decoder.Decode(&items); err != nil {
		t.Fatalf("failed to decode cart: %v", err)
	}
	return items
}

func newTestNormalizer(catalog ProductFinder) *Normalizer {
	return NewNormalizer(NewResolver(catalog, discardLogger()), discardLogger())
}

func TestNormalizer_Normalize(t *testing.T) {
	ctx := context.Background()

	t.Run("canonical item", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		items, err := n.Normalize(ctx, decodeCart(t, `[{"id":"7","name":"Camera","price":100,"quantity":2}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		item := items[0]
		if item.ProductID != 7 {
			t.Errorf("expected product id 7, got %d", item.ProductID)
		}
		if item.Name != "Camera" {
			t.Errorf("expected name Camera, got %q", item.Name)
		}
		if !item.Price.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected price 100, got %s", item.Price)
		}
		if item.Quantity != 2 {
			t.Errorf("expected quantity 2, got %d", item.Quantity)
		}
		if item.ImageURL != DefaultPlaceholderImage {
			t.Errorf("expected placeholder image, got %q", item.ImageURL)
		}
	})

	t.Run("empty object without catalog fallback uses position", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		items, err := n.Normalize(ctx, decodeCart(t, `[{"id":"3"},{}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if items[1].ProductID != 2 {
			t.Errorf("expected positional product id 2, got %d", items[1].ProductID)
		}
		if items[1].Name != DefaultItemName {
			t.Errorf("expected default name, got %q", items[1].Name)
		}
		if !items[1].Price.IsZero() {
			t.Errorf("expected zero price, got %s", items[1].Price)
		}
		if items[1].Quantity != 1 {
			t.Errorf("expected quantity 1, got %d", items[1].Quantity)
		}
	})

	t.Run("missing identifier uses catalog fallback", func(t *testing.T) {
		catalog := &fakeCatalog{product: &domain.Product{ID: 12}}
		n := newTestNormalizer(catalog)
		items, err := n.Normalize(ctx, decodeCart(t, `[{"name":"A"},{"name":"B"}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, item := range items {
			if item.ProductID != 12 {
				t.Errorf("expected fallback product 12, got %d", item.ProductID)
			}
		}
		if catalog.calls != 1 {
			t.Errorf("expected one catalog lookup, got %d", catalog.calls)
		}
	})

	t.Run("alternate field names", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		items, err := n.Normalize(ctx, decodeCart(t, `[
			{"productId":5,"title":"Lens","price":"49.90","quantity":"3","image_url":"/img/lens.jpg"},
			{"product_id":"6","product":{"name":"Tripod","image":"/img/tripod.jpg","price":20}},
			{"id":"x","name":"Bag","imageUrl":"/img/bag.jpg"}
		]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []struct {
			productID int64
			name      string
			price     string
			quantity  int
			image     string
		}{
			{5, "Lens", "49.9", 3, "/img/lens.jpg"},
			{6, "Tripod", "20", 1, "/img/tripod.jpg"},
			{3, "Bag", "0", 1, "/img/bag.jpg"},
		}

		for i, w := range want {
			got := items[i]
			if got.ProductID != w.productID || got.Name != w.name || got.Quantity != w.quantity || got.ImageURL != w.image {
				t.Errorf("item %d: got %+v, want %+v", i, got, w)
			}
			if !got.Price.Equal(decimal.RequireFromString(w.price)) {
				t.Errorf("item %d: expected price %s, got %s", i, w.price, got.Price)
			}
		}
	})

	t.Run("first candidate with a usable value wins", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		items, err := n.Normalize(ctx, decodeCart(t, `[{"name":"  ","title":"Flash","image":"","image_url":"/img/flash.jpg"}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items[0].Name != "Flash" {
			t.Errorf("expected title to be used, got %q", items[0].Name)
		}
		if items[0].ImageURL != "/img/flash.jpg" {
			t.Errorf("expected image_url to be used, got %q", items[0].ImageURL)
		}
	})

	t.Run("coerces bad numbers into range", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		items, err := n.Normalize(ctx, decodeCart(t, `[
			{"id":1,"price":-5,"quantity":0},
			{"id":2,"price":"abc","quantity":"many"},
			{"id":3,"price":10.5,"quantity":2.7}
		]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !items[0].Price.IsZero() || items[0].Quantity != 1 {
			t.Errorf("item 0: expected price 0 and quantity 1, got %s x %d", items[0].Price, items[0].Quantity)
		}
		if !items[1].Price.IsZero() || items[1].Quantity != 1 {
			t.Errorf("item 1: expected price 0 and quantity 1, got %s x %d", items[1].Price, items[1].Quantity)
		}
		if !items[2].Price.Equal(decimal.RequireFromString("10.5")) || items[2].Quantity != 2 {
			t.Errorf("item 2: expected 10.5 x 2, got %s x %d", items[2].Price, items[2].Quantity)
		}
	})

	t.Run("drops entries that are not objects", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		items, err := n.Normalize(ctx, decodeCart(t, `[null, "camera", 42, {"id":"9"}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 || items[0].ProductID != 9 {
			t.Fatalf("expected single item with product 9, got %+v", items)
		}
	})

	t.Run("long names are cut to the column width", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		long := strings.Repeat("ж", 300)
		exact := strings.Repeat("я", MaxItemNameLength)
		items, err := n.Normalize(ctx, decodeCart(t, `[{"id":1,"name":"`+long+`"},{"id":2,"name":"`+exact+`"}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := utf8.RuneCountInString(items[0].Name); got != MaxItemNameLength {
			t.Errorf("expected %d characters, got %d", MaxItemNameLength, got)
		}
		if !utf8.ValidString(items[0].Name) || items[0].Name != long[:2*MaxItemNameLength] {
			t.Errorf("expected a prefix of the original name, got %q", items[0].Name)
		}
		if items[1].Name != exact {
			t.Errorf("expected a name at the limit to be kept, got %d characters", utf8.RuneCountInString(items[1].Name))
		}
	})

	t.Run("custom placeholder image", func(t *testing.T) {
		n := NewNormalizer(NewResolver(nil, discardLogger()), discardLogger(), WithPlaceholderImage("/static/none.svg"))
		items, err := n.Normalize(ctx, decodeCart(t, `[{}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items[0].ImageURL != "/static/none.svg" {
			t.Errorf("expected custom placeholder, got %q", items[0].ImageURL)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		_, err := n.Normalize(ctx, nil)
		if !errors.Is(err, domain.ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
		if !domain.IsValidation(err) {
			t.Fatalf("expected validation error, got %T", err)
		}
	})

	t.Run("cart with nothing usable", func(t *testing.T) {
		n := newTestNormalizer(&fakeCatalog{})
		_, err := n.Normalize(ctx, decodeCart(t, `[1, "two", null]`))
		if !errors.Is(err, domain.ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
	})
}

func TestNormalizer_OutputInvariants(t *testing.T) {
	carts := []string{
		`[{}]`,
		`[{"id":"-1","price":-100,"quantity":-4}]`,
		`[{"id":"abc","name":"","image":null,"price":null,"quantity":null}]`,
		`[{"product":{"name":"Nested"}},{"id":"17","quantity":"1e2"}]`,
		`[{"id":3.0,"price":"  12.00 ","quantity":1},{"title":"x","product":"not an object"}]`,
	}

	n := newTestNormalizer(&fakeCatalog{})
	for _, cart := range carts {
		raw := decodeCart(t, cart)
		items, err := n.Normalize(context.Background(), raw)
		if err != nil {
			t.Fatalf("cart %s: unexpected error: %v", cart, err)
		}
		if len(items) != len(raw) {
			t.Fatalf("cart %s: expected %d items, got %d", cart, len(raw), len(items))
		}
		for i, item := range items {
			if item.ProductID < 1 {
				t.Errorf("cart %s item %d: product id %d < 1", cart, i, item.ProductID)
			}
			if item.Name == "" {
				t.Errorf("cart %s item %d: empty name", cart, i)
			}
			if item.Price.IsNegative() {
				t.Errorf("cart %s item %d: negative price %s", cart, i, item.Price)
			}
			if item.Quantity < 1 {
				t.Errorf("cart %s item %d: quantity %d < 1", cart, i, item.Quantity)
			}
			if item.ImageURL == "" {
				t.Errorf("cart %s item %d: empty image url", cart, i)
			}
		}
	}
}
