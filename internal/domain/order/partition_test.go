package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPartitionCart(t *testing.T) {
	cart := []Item{
		item("shopB", "p1", 1, "10"),
		item("shopA", "p2", 2, "5"),
		item("shopB", "p3", 1, "7"),
		item("shopC", "p4", 3, "1"),
	}
	parts, err := PartitionCart(cart)
	if err != nil {
		t.Fatalf("PartitionCart: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("len = %d, want 3", len(parts))
	}
	wantShops := []string{"shopB", "shopA", "shopC"}
	for i, s := range wantShops {
		if parts[i].ShopID != s {
			t.Fatalf("partition %d shop = %s, want %s", i, parts[i].ShopID, s)
		}
	}
	if got := parts[0].Items; len(got) != 2 || got[0].ProductID != "p1" || got[1].ProductID != "p3" {
		t.Fatalf("shopB items = %+v", got)
	}
	total := 0
	for _, p := range parts {
		for _, it := range p.Items {
			if it.ShopID != p.ShopID {
				t.Fatalf("item %s in partition %s", it.ProductID, p.ShopID)
			}
			total++
		}
	}
	if total != len(cart) {
		t.Fatalf("items across partitions = %d, want %d", total, len(cart))
	}
}

func TestPartitionCartValidation(t *testing.T) {
	tests := []struct {
		name string
		cart []Item
		want error
	}{
		{"empty", nil, ErrEmptyCart},
		{"missing shop", []Item{item("", "p1", 1, "1")}, ErrMissingShop},
		{"missing product", []Item{item("s1", "", 1, "1")}, ErrMissingProduct},
		{"zero qty", []Item{item("s1", "p1", 0, "1")}, ErrInvalidQuantity},
		{"negative price", []Item{item("s1", "p1", 1, "-1")}, ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PartitionCart(tt.cart); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAllocate(t *testing.T) {
	parts, _ := PartitionCart([]Item{
		item("a", "p1", 1, "30"),
		item("b", "p2", 1, "60"),
		item("c", "p3", 1, "10"),
	})

	tests := []struct {
		name  string
		total string
		want  []string
	}{
		{"proportional", "100", []string{"30", "60", "10"}},
		{"with shipping", "110", []string{"33", "66", "11"}},
		{"largest remainder takes the cent", "100.01", []string{"30", "60.01", "10"}},
		{"tiny total", "0.05", []string{"0.01", "0.03", "0.01"}},
		{"zero total", "0", []string{"0", "0", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			shares := Allocate(total, parts)
			sum := decimal.Zero
			for i, w := range tt.want {
				if !shares[i].Equal(decimal.RequireFromString(w)) {
					t.Fatalf("share[%d] = %s, want %s", i, shares[i], w)
				}
				sum = sum.Add(shares[i])
			}
			if !sum.Equal(total) {
				t.Fatalf("shares sum to %s, want %s", sum, total)
			}
		})
	}
}

func TestAllocateEvenWhenFree(t *testing.T) {
	parts, _ := PartitionCart([]Item{
		item("a", "p1", 1, "0"),
		item("b", "p2", 1, "0"),
		item("c", "p3", 1, "0"),
	})
	shares := Allocate(decimal.NewFromInt(10), parts)
	want := []string{"3.33", "3.33", "3.34"}
	for i, w := range want {
		if !shares[i].Equal(decimal.RequireFromString(w)) {
			t.Fatalf("share[%d] = %s, want %s", i, shares[i], w)
		}
	}
}

func TestAllocateNeverNegative(t *testing.T) {
	tests := []struct {
		name  string
		total string
		cart  []Item
	}{
		{"four equal shops", "0.02", []Item{
			item("a", "p1", 1, "1"), item("b", "p2", 1, "1"),
			item("c", "p3", 1, "1"), item("d", "p4", 1, "1"),
		}},
		{"skewed shops", "0.03", []Item{
			item("a", "p1", 1, "999"), item("b", "p2", 1, "0.5"),
			item("c", "p3", 1, "0.5"), item("d", "p4", 1, "0.5"), item("e", "p5", 1, "0.5"),
		}},
		{"one cent over three", "0.01", []Item{
			item("a", "p1", 1, "3"), item("b", "p2", 1, "3"), item("c", "p3", 1, "3"),
		}},
		{"sub-cent total", "0.005", []Item{
			item("a", "p1", 1, "1"), item("b", "p2", 1, "1"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := PartitionCart(tt.cart)
			if err != nil {
				t.Fatal(err)
			}
			total := decimal.RequireFromString(tt.total)
			shares := Allocate(total, parts)
			sum := decimal.Zero
			for i, sh := range shares {
				if sh.IsNegative() {
					t.Fatalf("share[%d] = %s is negative (shares %v)", i, sh, shares)
				}
				sum = sum.Add(sh)
			}
			if !sum.Equal(total) {
				t.Fatalf("shares %v sum to %s, want %s", shares, sum, total)
			}
		})
	}

	parts, _ := PartitionCart([]Item{
		item("a", "p1", 1, "1"), item("b", "p2", 1, "1"),
		item("c", "p3", 1, "1"), item("d", "p4", 1, "1"),
	})
	shares := Allocate(decimal.RequireFromString("0.02"), parts)
	want := []string{"0", "0", "0.01", "0.01"}
	for i, w := range want {
		if !shares[i].Equal(decimal.RequireFromString(w)) {
			t.Fatalf("share[%d] = %s, want %s", i, shares[i], w)
		}
	}
}

func TestPriced(t *testing.T) {
	free, _ := PartitionCart([]Item{item("a", "p1", 2, "0"), item("b", "p2", 1, "0")})
	if Priced(free) {
		t.Fatal("free cart reported as priced")
	}
	paid, _ := PartitionCart([]Item{item("a", "p1", 2, "0"), item("b", "p2", 1, "0.01")})
	if !Priced(paid) {
		t.Fatal("priced cart reported as free")
	}
}
