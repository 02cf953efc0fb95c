package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id string) error
	// ListByBuyer and ListByShop return newest first.
	ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error)
	ListByShop(ctx context.Context, shopID string) ([]*Order, error)
	// List returns delivered orders first (latest delivery first), then newest first.
	List(ctx context.Context) ([]*Order, error)
}
