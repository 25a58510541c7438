package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl"`

	// Product is a display projection built from the snapshot fields above.
	// It is never persisted.
	Product *ProductSummary `json:"product,omitempty"`
}

// LineTotal returns price * quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Comment      string          `json:"comment"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       OrderStatus     `json:"status"`
	Items        []OrderItem     `json:"items"`
	ItemsMissing bool            `json:"itemsMissing,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// SumLineTotals adds up price * quantity over all items. The stored
// TotalAmount comes from the client and is not required to match.
func (o *Order) SumLineTotals() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// WithDisplayProducts fills Item.Product for every item from the item's own
// snapshot. The catalog is not consulted.
func (o *Order) WithDisplayProducts() *Order {
	for i := range o.Items {
		item := &o.Items[i]
		item.Product = &ProductSummary{
			ID:    item.ProductID,
			Name:  item.Name,
			Price: item.Price,
			Image: item.ImageURL,
		}
	}
	return o
}
