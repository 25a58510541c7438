package orders

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

const (
	DefaultItemName         = "Товар"
	DefaultPlaceholderImage = "/images/placeholder.png"

	// MaxItemNameLength matches the order_items.name column width, in characters.
	MaxItemNameLength = 255
)

// Normalizer converts loosely shaped checkout cart entries into order items.
type Normalizer struct {
	resolver         *Resolver
	placeholderImage string
	logger           *slog.Logger
}

type NormalizerOption func(*Normalizer)

func WithPlaceholderImage(path string) NormalizerOption {
	return func(n *Normalizer) {
		if path != "" {
			n.placeholderImage = path
		}
	}
}

func NewNormalizer(resolver *Resolver, logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		resolver:         resolver,
		placeholderImage: DefaultPlaceholderImage,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns one item per cart entry that is a JSON object. Every
// returned item has a product id >= 1, a name, a price >= 0, a quantity >= 1
// and an image URL. An empty cart, or one where every entry was dropped,
// fails with a ValidationError wrapping domain.ErrEmptyCart.
func (n *Normalizer) Normalize(ctx context.Context, raw []any) ([]domain.OrderItem, error) {
	if len(raw) == 0 {
		return nil, &domain.ValidationError{Field: "cartItems", Err: domain.ErrEmptyCart}
	}

	resolution := n.resolver.begin(ctx)
	items := make([]domain.OrderItem, 0, len(raw))
	dropped := 0

	for index, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			dropped++
			n.logger.Warn("dropping cart entry that is not an object", "index", index)
			continue
		}
		items = append(items, n.normalizeItem(resolution, cartItem(fields), index))
	}

	if dropped > 0 {
		droppedItems.Add(ctx, int64(dropped))
	}

	if len(items) == 0 {
		return nil, &domain.ValidationError{Field: "cartItems", Err: domain.ErrEmptyCart}
	}

	return items, nil
}

func (n *Normalizer) normalizeItem(resolution *resolution, fields cartItem, index int) domain.OrderItem {
	identifier, _ := extractIdentifier(fields)

	name, ok := extractName(fields)
	if !ok {
		name = DefaultItemName
	}
	name = truncateRunes(name, MaxItemNameLength)

	price, ok := extractPrice(fields)
	if !ok {
		price = decimal.Zero
	}

	quantity, ok := extractQuantity(fields)
	if !ok {
		quantity = 1
	}

	image, ok := extractImage(fields)
	if !ok {
		image = n.placeholderImage
	}

	return domain.OrderItem{
		ProductID: resolution.resolve(identifier, index),
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		ImageURL:  image,
	}
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
