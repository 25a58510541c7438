// Package reporting computes the admin dashboard statistics. Its contract is
// to always return a well-formed stats object: storage failures, including
// tables that have not been migrated yet, degrade to zero values.
package reporting

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

const DefaultPopularLimit = 5

var (
	tracer = otel.Tracer("reporting")
	meter  = otel.Meter("reporting")

	degradedQueries, _ = meter.Int64Counter("reporting.degraded_queries",
		metric.WithDescription("Dashboard queries answered with a zero value after a storage failure."),
	)
)

// OrderStats is the aggregate side of the order store.
type OrderStats interface {
	CountOrders(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error)
	PopularProducts(ctx context.Context, limit int) ([]domain.PopularProduct, error)
}

type ProductCounter interface {
	Count(ctx context.Context) (int64, error)
}

// StatsCache keeps a recently computed dashboard. Implementations report a
// miss as (nil, nil).
type StatsCache interface {
	Get(ctx context.Context) (*domain.DashboardStats, error)
	Set(ctx context.Context, stats domain.DashboardStats) error
	Invalidate(ctx context.Context) error
}

type Aggregator struct {
	orders       OrderStats
	products     ProductCounter
	cache        StatsCache
	popularLimit int
	logger       *slog.Logger
}

type Option func(*Aggregator)

func WithCache(cache StatsCache) Option {
	return func(a *Aggregator) {
		a.cache = cache
	}
}

func WithPopularLimit(limit int) Option {
	return func(a *Aggregator) {
		if limit > 0 {
			a.popularLimit = limit
		}
	}
}

func NewAggregator(orders OrderStats, products ProductCounter, logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		orders:       orders,
		products:     products,
		popularLimit: DefaultPopularLimit,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DashboardStats never fails. Each figure is read independently, so a
// partially migrated schema still yields every figure that can be read.
// Results with degraded figures are not cached.
func (a *Aggregator) DashboardStats(ctx context.Context) domain.DashboardStats {
	ctx, span := tracer.Start(ctx, "reporting.DashboardStats")
	defer span.End()

	if a.cache != nil {
		cached, err := a.cache.Get(ctx)
		if err != nil {
			a.logger.Warn("stats cache read failed", "error", err)
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return *cached
		}
	}

	stats := domain.EmptyDashboardStats()
	degraded := false

	if a.products != nil {
		count, err := a.products.Count(ctx)
		if a.degrade(ctx, "products_count", err) {
			degraded = true
		} else {
			stats.ProductsCount = count
		}
	}

	if count, err := a.orders.CountOrders(ctx); a.degrade(ctx, "orders_count", err) {
		degraded = true
	} else {
		stats.OrdersCount = count
	}

	if total, err := a.orders.TotalSales(ctx); a.degrade(ctx, "total_sales", err) {
		degraded = true
	} else {
		stats.TotalSales = total
	}

	if byStatus, err := a.orders.CountByStatus(ctx); a.degrade(ctx, "orders_by_status", err) {
		degraded = true
	} else {
		for status, count := range byStatus {
			stats.OrdersByStatus[status] = count
		}
	}

	if popular, err := a.orders.PopularProducts(ctx, a.popularLimit); a.degrade(ctx, "popular_products", err) {
		degraded = true
	} else if popular != nil {
		stats.PopularProducts = popular
	}

	span.SetAttributes(attribute.Bool("stats.degraded", degraded))

	if a.cache != nil && !degraded {
		if err := a.cache.Set(ctx, stats); err != nil {
			a.logger.Warn("stats cache write failed", "error", err)
		}
	}

	return stats
}

// degrade logs err and reports whether the figure must fall back to zero.
func (a *Aggregator) degrade(ctx context.Context, figure string, err error) bool {
	if err == nil {
		return false
	}

	degradedQueries.Add(ctx, 1, metric.WithAttributes(attribute.String("figure", figure)))

	if domain.IsSchemaMissing(err) {
		a.logger.Warn("dashboard figure unavailable, schema not migrated", "figure", figure, "error", err)
	} else {
		a.logger.Error("dashboard figure unavailable", "figure", figure, "error", err)
	}
	return true
}
