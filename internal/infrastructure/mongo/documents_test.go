package mongo

import (
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace/internal/domain/payment"
	"github.com/shopspring/decimal"
)

func TestOrderDocKeepsMoneyExact(t *testing.T) {
	part := domain.Partition{ShopID: "s1", Items: []domain.Item{{
		ProductID: "p1", ShopID: "s1", Name: "Mug", Quantity: 3, UnitPrice: decimal.RequireFromString("33.33"),
	}}}
	o, err := domain.New("o1", part, decimal.RequireFromString("99.99"), decimal.RequireFromString("150.01"),
		domain.Buyer{ID: "u1"}, domain.ShippingAddress{}, payment.Info{Status: payment.StatusPending}, "k1")
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	delivered := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o.DeliveredAt = &delivered

	got, err := newOrderDoc(o).toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if !got.TotalPrice.Equal(o.TotalPrice) || !got.CartTotal.Equal(o.CartTotal) {
		t.Fatalf("totals drifted: %s/%s", got.TotalPrice, got.CartTotal)
	}
	if !got.Items[0].UnitPrice.Equal(decimal.RequireFromString("33.33")) {
		t.Fatalf("unit price = %s", got.Items[0].UnitPrice)
	}
	if got.DeliveredAt == nil || !got.DeliveredAt.Equal(delivered) {
		t.Fatalf("delivered at = %v", got.DeliveredAt)
	}
	if got.IdempotencyKey != "k1" || got.Status != domain.StatusProcessing {
		t.Fatalf("unexpected order: %+v", got)
	}
}
