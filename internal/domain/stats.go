package domain

import "github.com/shopspring/decimal"

type PopularProduct struct {
	ProductID     int64  `json:"productId"`
	Name          string `json:"name"`
	TotalQuantity int64  `json:"totalQuantity"`
}

type DashboardStats struct {
	ProductsCount   int64                 `json:"productsCount"`
	OrdersCount     int64                 `json:"ordersCount"`
	TotalSales      decimal.Decimal       `json:"totalSales"`
	OrdersByStatus  map[OrderStatus]int64 `json:"ordersByStatus"`
	PopularProducts []PopularProduct      `json:"popularProducts"`
}

// EmptyDashboardStats is the well-formed zero shape served when nothing can
// be read from storage.
func EmptyDashboardStats() DashboardStats {
	return DashboardStats{
		TotalSales:      decimal.Zero,
		OrdersByStatus:  map[OrderStatus]int64{},
		PopularProducts: []PopularProduct{},
	}
}
