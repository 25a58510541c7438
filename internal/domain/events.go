package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

type OrderCreatedEvent struct {
	EventID      string          `json:"eventId"`
	OrderID      int64           `json:"orderId"`
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Items        []OrderItem     `json:"items"`
	Timestamp    time.Time       `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	EventID   string      `json:"eventId"`
	OrderID   int64       `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderEvent is one row of the order journal.
type OrderEvent struct {
	EventID    string    `json:"eventId"`
	OrderID    int64     `json:"orderId"`
	Type       string    `json:"type"`
	Payload    []byte    `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
	RecordedAt time.Time `json:"recordedAt"`
}
