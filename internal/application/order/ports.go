package order

import (
	"context"

	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
)

type IDGenerator interface {
	NewID() string
}

// Stores are the repositories bound to one unit of work.
type Stores struct {
	Orders    domain.Repository
	Inventory dominventory.Ledger
	Balances  dombalance.Ledger
}

// Transactor runs fn as a single atomic unit of work. Returning an error from
// fn rolls back every mutation made through the supplied Stores.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// IdempotencyStore guards checkout replays. Claim returns false when the key is
// already taken; Lookup returns the order ids recorded by Complete.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key string, orderIDs []string) error
	Lookup(ctx context.Context, key string) ([]string, bool, error)
	Release(ctx context.Context, key string) error
}

// RestockPolicy decides whether dispatching an order returns its items to stock.
type RestockPolicy string

const (
	RestockOnDispatch RestockPolicy = "dispatch"
	RestockOnRefund   RestockPolicy = "refund"
)

// Role identifies who requests a lifecycle transition.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
	RoleAdmin  Role = "admin"
)

// Actor is the authenticated caller. ID is the shop id for sellers.
type Actor struct {
	Role Role
	ID   string
}
