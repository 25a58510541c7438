package orders

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("orders")
	meter  = otel.Meter("orders")

	ordersCreated, _ = meter.Int64Counter("orders.created",
		metric.WithDescription("Orders persisted through checkout intake."),
	)
	statusChanges, _ = meter.Int64Counter("orders.status_changes",
		metric.WithDescription("Order status updates, by target status."),
	)
	droppedItems, _ = meter.Int64Counter("orders.intake.dropped_items",
		metric.WithDescription("Cart entries discarded during normalization."),
	)
)
