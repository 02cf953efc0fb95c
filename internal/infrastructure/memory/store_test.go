package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/shopspring/decimal"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	rec, _ := dominventory.NewRecord("p1", "s1", 5, 10)
	s.PutProduct(rec)
	acct, _ := dombalance.NewAccount("s1", decimal.NewFromInt(50))
	s.PutShop(acct)
	return s
}

func TestConcurrentRestockConverges(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	tx := s.Transactor()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if _, err := s.Inventory().Restock(ctx, "p1", 1); err != nil {
					t.Errorf("Restock: %v", err)
				}
				return
			}
			err := tx.WithinTx(ctx, func(ctx context.Context, st appOrder.Stores) error {
				_, err := st.Inventory.Restock(ctx, "p1", 1)
				return err
			})
			if err != nil {
				t.Errorf("WithinTx: %v", err)
			}
		}(i)
	}
	wg.Wait()

	rec, err := s.Inventory().Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Stock != 55 {
		t.Fatalf("stock = %d, want 55", rec.Stock)
	}
	if rec.SoldOut != 0 {
		t.Fatalf("soldOut = %d, want 0 (clamped)", rec.SoldOut)
	}
}

func TestConcurrentAdditiveCredits(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Balances().Credit(ctx, "s1", decimal.NewFromInt(2), dombalance.ModeAdditive); err != nil {
				t.Errorf("Credit: %v", err)
			}
		}()
	}
	wg.Wait()

	acct, _ := s.Balances().Get(ctx, "s1")
	if !acct.Available.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("available = %s, want 150", acct.Available)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	o := &domorder.Order{ID: "o1", ShopID: "s1", Status: domorder.StatusProcessing, CreatedAt: time.Now()}
	if err := s.Orders().Insert(ctx, o); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	boom := errors.New("boom")
	err := s.Transactor().WithinTx(ctx, func(ctx context.Context, st appOrder.Stores) error {
		if _, err := st.Inventory.Restock(ctx, "p1", 3); err != nil {
			return err
		}
		if _, err := st.Balances.Credit(ctx, "s1", decimal.NewFromInt(90), dombalance.ModeAdditive); err != nil {
			return err
		}
		upd := o.Clone()
		upd.Status = domorder.StatusDelivered
		if err := st.Orders.Update(ctx, upd); err != nil {
			return err
		}
		if err := st.Orders.Insert(ctx, &domorder.Order{ID: "o2", ShopID: "s1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	rec, _ := s.Inventory().Get(ctx, "p1")
	if rec.Stock != 5 || rec.SoldOut != 10 {
		t.Fatalf("inventory = %d/%d, want 5/10", rec.Stock, rec.SoldOut)
	}
	acct, _ := s.Balances().Get(ctx, "s1")
	if !acct.Available.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("available = %s, want 50", acct.Available)
	}
	got, _ := s.Orders().Get(ctx, "o1")
	if got.Status != domorder.StatusProcessing {
		t.Fatalf("status = %q, want Processing", got.Status)
	}
	if _, err := s.Orders().Get(ctx, "o2"); !errors.Is(err, domorder.ErrNotFound) {
		t.Fatalf("o2 survived rollback: %v", err)
	}
}

func TestLedgerNotFound(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	if _, err := s.Inventory().Restock(ctx, "missing", 1); !errors.Is(err, dominventory.ErrNotFound) {
		t.Fatalf("restock err = %v", err)
	}
	if _, err := s.Balances().Credit(ctx, "missing", decimal.NewFromInt(1), dombalance.ModeAdditive); !errors.Is(err, dombalance.ErrNotFound) {
		t.Fatalf("credit err = %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		o := &domorder.Order{ID: id, ShopID: "s1", Buyer: domorder.Buyer{ID: "u1"}, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Orders().Insert(ctx, o); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	list, err := s.Orders().ListByBuyer(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByBuyer: %v", err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "a" {
		t.Fatalf("order = %v", ids(list))
	}
	if list, _ := s.Orders().ListByShop(ctx, "other"); len(list) != 0 {
		t.Fatalf("foreign shop returned %d orders", len(list))
	}
}

func ids(orders []*domorder.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Minute)

	ok, _ := s.Claim(ctx, "k")
	if !ok {
		t.Fatal("first claim should win")
	}
	if ok, _ := s.Claim(ctx, "k"); ok {
		t.Fatal("second claim should lose")
	}
	if _, found, _ := s.Lookup(ctx, "k"); found {
		t.Fatal("in-flight key must not replay")
	}
	_ = s.Complete(ctx, "k", []string{"o1", "o2"})
	got, found, _ := s.Lookup(ctx, "k")
	if !found || len(got) != 2 {
		t.Fatalf("lookup = %v, %v", got, found)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, found, _ := s.Lookup(ctx, "k"); found {
		t.Fatal("expired key replayed")
	}
	if ok, _ := s.Claim(ctx, "k"); !ok {
		t.Fatal("expired key should be claimable")
	}
}
