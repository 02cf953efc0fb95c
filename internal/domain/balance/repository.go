package balance

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger applies balance credits atomically per shop.
type Ledger interface {
	Get(ctx context.Context, shopID string) (*Account, error)
	Credit(ctx context.Context, shopID string, amount decimal.Decimal, mode CreditMode) (*Account, error)
}
