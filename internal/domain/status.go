package domain

import (
	"fmt"
	"slices"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusViewed    OrderStatus = "VIEWED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusViewed,
	OrderStatusCompleted,
	OrderStatusCanceled,
}

func (s OrderStatus) Valid() bool {
	return slices.Contains(OrderStatuses, s)
}

// Terminal reports whether no further lifecycle step follows s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

// ParseOrderStatus accepts only the exact enumerated names. "created" or
// " CREATED" is a ValidationError like any other unknown value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if !status.Valid() {
		return "", &ValidationError{
			Field: "status",
			Err:   fmt.Errorf("%w: %q", ErrInvalidStatus, raw),
		}
	}
	return status, nil
}
