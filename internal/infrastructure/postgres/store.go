package postgres

import (
	"context"
	"database/sql"

	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store exposes the order, inventory and balance tables. Repositories returned
// directly run in autocommit; Transactor binds them to one transaction.
type Store struct {
	db   *sql.DB
	opts TxOptions
}

func NewStore(db *sql.DB, maxRetries int) *Store {
	opts := DefaultTxOptions()
	if maxRetries >= 0 {
		opts.MaxRetries = maxRetries
	}
	return &Store{db: db, opts: opts}
}

func (s *Store) Orders() *OrderRepository        { return &OrderRepository{q: s.db} }
func (s *Store) Inventory() *InventoryLedger     { return &InventoryLedger{q: s.db} }
func (s *Store) Balances() *BalanceLedger        { return &BalanceLedger{q: s.db} }
func (s *Store) Transactor() appOrder.Transactor { return &transactor{s: s} }

// PutProduct upserts a stock record.
func (s *Store) PutProduct(ctx context.Context, r *dominventory.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, shop_id, stock, sold_out, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET shop_id = EXCLUDED.shop_id, stock = EXCLUDED.stock,
		    sold_out = EXCLUDED.sold_out, updated_at = NOW()`,
		r.ProductID, r.ShopID, r.Stock, r.SoldOut)
	return err
}

// PutShop upserts a seller balance account.
func (s *Store) PutShop(ctx context.Context, a *dombalance.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shops (id, available, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET available = EXCLUDED.available, updated_at = NOW()`,
		a.ShopID, a.Available)
	return err
}

type transactor struct{ s *Store }

// WithinTx locks the rows it reads for update, so concurrent transitions of
// the same order serialise on the database as well as in process.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s appOrder.Stores) error) error {
	return WithRetry(ctx, t.s.db, t.s.opts, func(tx *sql.Tx) error {
		return fn(ctx, appOrder.Stores{
			Orders:    &OrderRepository{q: tx, forUpdate: true},
			Inventory: &InventoryLedger{q: tx},
			Balances:  &BalanceLedger{q: tx},
		})
	})
}
