package inventory

import "time"

// RestockedEvent is emitted after a committed restock.
type RestockedEvent struct {
	ProductID  string
	ShopID     string
	Quantity   int
	Stock      int
	SoldOut    int
	Reason     string
	OccurredAt time.Time
}

const (
	ReasonDispatch      = "dispatch"
	ReasonRefund        = "refund"
	ReasonManualRestock = "manual"
)

func (RestockedEvent) EventName() string { return "inventory.restocked" }

func NewRestockedEvent(r *Record, qty int, reason string) RestockedEvent {
	return RestockedEvent{
		ProductID:  r.ProductID,
		ShopID:     r.ShopID,
		Quantity:   qty,
		Stock:      r.Stock,
		SoldOut:    r.SoldOut,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
