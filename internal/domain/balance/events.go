package balance

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditedEvent struct {
	ShopID     string
	OrderID    string
	Amount     decimal.Decimal
	Mode       CreditMode
	Available  decimal.Decimal
	OccurredAt time.Time
}

func (CreditedEvent) EventName() string { return "balance.credited" }

func NewCreditedEvent(a *Account, orderID string, amount decimal.Decimal, mode CreditMode) CreditedEvent {
	return CreditedEvent{
		ShopID:     a.ShopID,
		OrderID:    orderID,
		Amount:     amount,
		Mode:       mode,
		Available:  a.Available,
		OccurredAt: time.Now().UTC(),
	}
}
