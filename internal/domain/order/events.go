package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted once per shop partition after checkout commits.
type OrderCreatedEvent struct {
	OrderID    string
	ShopID     string
	BuyerID    string
	TotalPrice decimal.Decimal
	Items      int
	OccurredAt time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		ShopID:     o.ShopID,
		BuyerID:    o.Buyer.ID,
		TotalPrice: o.TotalPrice,
		Items:      len(o.Items),
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted after every committed lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    string
	ShopID     string
	From       Status
	To         Status
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:    o.ID,
		ShopID:     o.ShopID,
		From:       from,
		To:         o.Status,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderDeliveredEvent carries the settlement figures of a delivered order.
type OrderDeliveredEvent struct {
	OrderID       string
	ShopID        string
	TotalPrice    decimal.Decimal
	ServiceCharge decimal.Decimal
	Payout        decimal.Decimal
	OccurredAt    time.Time
}

func (OrderDeliveredEvent) EventName() string { return "order.delivered" }

func NewOrderDeliveredEvent(o *Order, charge, payout decimal.Decimal) OrderDeliveredEvent {
	return OrderDeliveredEvent{
		OrderID:       o.ID,
		ShopID:        o.ShopID,
		TotalPrice:    o.TotalPrice,
		ServiceCharge: charge,
		Payout:        payout,
		OccurredAt:    time.Now().UTC(),
	}
}
