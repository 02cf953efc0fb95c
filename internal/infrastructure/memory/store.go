package memory

import (
	"context"
	"fmt"
	"sync"

	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace/internal/domain/order"
)

// Store keeps orders, inventory and balances in process memory. Transactions
// are serialised and undone from a journal on failure; calls made outside a
// transaction behave as single-statement transactions.
type Store struct {
	txMu sync.Mutex

	mu       sync.RWMutex
	orders   map[string]*domorder.Order
	products map[string]*dominventory.Record
	shops    map[string]*dombalance.Account
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[string]*domorder.Order),
		products: make(map[string]*dominventory.Record),
		shops:    make(map[string]*dombalance.Account),
	}
}

// PutProduct seeds or replaces an inventory record.
func (s *Store) PutProduct(r *dominventory.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[r.ProductID] = r.Clone()
}

// PutShop seeds or replaces a seller account.
func (s *Store) PutShop(a *dombalance.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shops[a.ShopID] = a.Clone()
}

func (s *Store) Orders() *OrderRepository        { return &OrderRepository{s: s} }
func (s *Store) Inventory() *InventoryLedger     { return &InventoryLedger{s: s} }
func (s *Store) Balances() *BalanceLedger        { return &BalanceLedger{s: s} }
func (s *Store) Transactor() appOrder.Transactor { return &transactor{s: s} }

// standalone serialises a call made outside WithinTx against running
// transactions, so a rollback can never clobber it.
func (s *Store) standalone(j *journal) func() {
	if j != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// journal records undo steps for the running transaction.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type transactor struct{ s *Store }

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s appOrder.Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	j := &journal{}
	stores := appOrder.Stores{
		Orders:    &OrderRepository{s: t.s, j: j},
		Inventory: &InventoryLedger{s: t.s, j: j},
		Balances:  &BalanceLedger{s: t.s, j: j},
	}

	defer func() {
		if r := recover(); r != nil {
			t.s.mu.Lock()
			j.rollback()
			t.s.mu.Unlock()
			panic(r)
		}
	}()

	if err = fn(ctx, stores); err != nil {
		t.s.mu.Lock()
		j.rollback()
		t.s.mu.Unlock()
		return err
	}
	if err := ctx.Err(); err != nil {
		t.s.mu.Lock()
		j.rollback()
		t.s.mu.Unlock()
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
