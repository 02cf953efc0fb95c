package inventory

import "context"

// Ledger applies stock mutations atomically per product.
type Ledger interface {
	Get(ctx context.Context, productID string) (*Record, error)
	Restock(ctx context.Context, productID string, qty int) (*Record, error)
}
