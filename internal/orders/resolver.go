package orders

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

// ProductFinder is the slice of the product catalog the resolver needs.
type ProductFinder interface {
	FindFirst(ctx context.Context) (*domain.Product, error)
}

// ResolveProductID turns a client-supplied identifier into a product id.
// A positive integer identifier wins, then fallback when it is positive,
// then the 1-based position of the line in the cart.
func ResolveProductID(raw string, index int, fallback int64) int64 {
	if id, ok := parseProductID(raw); ok {
		return id
	}
	if fallback >= 1 {
		return fallback
	}
	return int64(index) + 1
}

func parseProductID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

type Resolver struct {
	catalog ProductFinder
	logger  *slog.Logger
}

func NewResolver(catalog ProductFinder, logger *slog.Logger) *Resolver {
	return &Resolver{catalog: catalog, logger: logger}
}

// resolution scopes the fallback lookup to a single intake: the catalog is
// queried at most once, and only if some line lacks a usable identifier.
type resolution struct {
	ctx      context.Context
	resolver *Resolver
	fallback int64
	fetched  bool
}

func (r *Resolver) begin(ctx context.Context) *resolution {
	return &resolution{ctx: ctx, resolver: r}
}

func (b *resolution) resolve(raw string, index int) int64 {
	if id, ok := parseProductID(raw); ok {
		return id
	}
	return ResolveProductID(raw, index, b.fallbackID())
}

func (b *resolution) fallbackID() int64 {
	if b.fetched {
		return b.fallback
	}
	b.fetched = true

	if b.resolver == nil || b.resolver.catalog == nil {
		return 0
	}

	product, err := b.resolver.catalog.FindFirst(b.ctx)
	if err != nil {
		b.resolver.logger.Warn("fallback product lookup failed", "error", err)
		return 0
	}
	if product == nil {
		b.resolver.logger.Warn("catalog is empty, using positional product ids")
		return 0
	}

	b.fallback = product.ID
	return b.fallback
}
