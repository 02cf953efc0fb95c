package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

type InventoryLedger struct{ q querier }

func (l *InventoryLedger) Get(ctx context.Context, productID string) (*dominventory.Record, error) {
	return scanRecord(l.q.QueryRowContext(ctx,
		`SELECT id, shop_id, stock, sold_out, updated_at FROM products WHERE id = $1`, productID))
}

// Restock is a single conditional UPDATE so concurrent restocks of the same
// product never lose an increment.
func (l *InventoryLedger) Restock(ctx context.Context, productID string, qty int) (*dominventory.Record, error) {
	if qty <= 0 {
		return nil, dominventory.ErrInvalidQuantity
	}
	return scanRecord(l.q.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    sold_out = GREATEST(sold_out - $2, 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, shop_id, stock, sold_out, updated_at`, productID, qty))
}

func scanRecord(row *sql.Row) (*dominventory.Record, error) {
	var r dominventory.Record
	err := row.Scan(&r.ProductID, &r.ShopID, &r.Stock, &r.SoldOut, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dominventory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

type BalanceLedger struct{ q querier }

func (l *BalanceLedger) Get(ctx context.Context, shopID string) (*dombalance.Account, error) {
	return scanAccount(l.q.QueryRowContext(ctx,
		`SELECT id, available, updated_at FROM shops WHERE id = $1`, shopID))
}

func (l *BalanceLedger) Credit(ctx context.Context, shopID string, amount decimal.Decimal, mode dombalance.CreditMode) (*dombalance.Account, error) {
	if amount.IsNegative() {
		return nil, dombalance.ErrInvalidAmount
	}
	var set string
	switch mode {
	case dombalance.ModeAdditive:
		set = "available = available + $2"
	case dombalance.ModeOverwrite:
		set = "available = $2"
	default:
		return nil, fmt.Errorf("%w: %q", dombalance.ErrInvalidMode, mode)
	}
	return scanAccount(l.q.QueryRowContext(ctx,
		`UPDATE shops SET `+set+`, updated_at = NOW() WHERE id = $1
		RETURNING id, available, updated_at`, shopID, amount))
}

func scanAccount(row *sql.Row) (*dombalance.Account, error) {
	var a dombalance.Account
	err := row.Scan(&a.ShopID, &a.Available, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dombalance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan shop: %w", err)
	}
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
