package memory

import (
	"context"

	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

type InventoryLedger struct {
	s *Store
	j *journal
}

func (l *InventoryLedger) Get(ctx context.Context, productID string) (*dominventory.Record, error) {
	_ = ctx
	defer l.s.standalone(l.j)()
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	rec, ok := l.s.products[productID]
	if !ok {
		return nil, dominventory.ErrNotFound
	}
	return rec.Clone(), nil
}

func (l *InventoryLedger) Restock(ctx context.Context, productID string, qty int) (*dominventory.Record, error) {
	_ = ctx
	defer l.s.standalone(l.j)()
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	rec, ok := l.s.products[productID]
	if !ok {
		return nil, dominventory.ErrNotFound
	}
	prev := rec.Clone()
	if err := rec.Restock(qty); err != nil {
		return nil, err
	}
	l.j.record(func() { l.s.products[productID] = prev })
	return rec.Clone(), nil
}

type BalanceLedger struct {
	s *Store
	j *journal
}

func (l *BalanceLedger) Get(ctx context.Context, shopID string) (*dombalance.Account, error) {
	_ = ctx
	defer l.s.standalone(l.j)()
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	acct, ok := l.s.shops[shopID]
	if !ok {
		return nil, dombalance.ErrNotFound
	}
	return acct.Clone(), nil
}

func (l *BalanceLedger) Credit(ctx context.Context, shopID string, amount decimal.Decimal, mode dombalance.CreditMode) (*dombalance.Account, error) {
	_ = ctx
	defer l.s.standalone(l.j)()
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	acct, ok := l.s.shops[shopID]
	if !ok {
		return nil, dombalance.ErrNotFound
	}
	prev := acct.Clone()
	if err := acct.Credit(amount, mode); err != nil {
		return nil, err
	}
	l.j.record(func() { l.s.shops[shopID] = prev })
	return acct.Clone(), nil
}
