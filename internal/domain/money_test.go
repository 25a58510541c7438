package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyMarshalsAsNumbers(t *testing.T) {
	item := OrderItem{ProductID: 9, Name: "Pen", Price: decimal.RequireFromString("19.999"), Quantity: 3}
	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("failed to marshal item: %v", err)
	}
	if !strings.Contains(string(raw), `"price":19.999`) {
		t.Errorf("expected numeric price, got %s", raw)
	}

	raw, err = json.Marshal(EmptyDashboardStats())
	if err != nil {
		t.Fatalf("failed to marshal stats: %v", err)
	}
	if !strings.Contains(string(raw), `"totalSales":0`) {
		t.Errorf("expected numeric totalSales, got %s", raw)
	}
}

func TestMoneyDecodesQuotedAndBareValues(t *testing.T) {
	for _, raw := range []string{`{"totalAmount":"2500.50"}`, `{"totalAmount":2500.50}`} {
		var order Order
		if err := json.Unmarshal([]byte(raw), &order); err != nil {
			t.Fatalf("failed to decode %s: %v", raw, err)
		}
		if !order.TotalAmount.Equal(decimal.RequireFromString("2500.5")) {
			t.Errorf("%s: expected 2500.5, got %s", raw, order.TotalAmount)
		}
	}
}
