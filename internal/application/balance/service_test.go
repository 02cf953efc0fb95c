package balance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	appBalance "github.com/Zhima-Mochi/marketplace/internal/application/balance"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
)

func TestGet(t *testing.T) {
	store := memory.NewStore()
	acct, _ := dombalance.NewAccount("s1", decimal.RequireFromString("12.50"))
	store.PutShop(acct)
	svc := appBalance.NewService(store.Balances(), nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, "s1", "s1")
	if err != nil || !got.Available.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := svc.Get(ctx, "s2", "s1"); !errors.Is(err, application.ErrForbidden) {
		t.Fatalf("foreign err = %v", err)
	}
	if _, err := svc.Get(ctx, "", "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	if _, err := svc.Get(ctx, "", ""); !errors.Is(err, application.ErrValidation) {
		t.Fatalf("empty err = %v", err)
	}
}
