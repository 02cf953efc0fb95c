package order

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Partition is the slice of a cart that belongs to one shop.
type Partition struct {
	ShopID string
	Items  []Item
}

func (p Partition) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// PartitionCart groups cart items by shop. Partitions appear in order of the
// shop's first item and items keep their relative order.
func PartitionCart(cart []Item) ([]Partition, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	index := make(map[string]int)
	var parts []Partition
	for _, it := range cart {
		if err := it.validate(); err != nil {
			return nil, err
		}
		i, ok := index[it.ShopID]
		if !ok {
			i = len(parts)
			index[it.ShopID] = i
			parts = append(parts, Partition{ShopID: it.ShopID})
		}
		parts[i].Items = append(parts[i].Items, it)
	}
	return parts, nil
}

// Priced reports whether any partition carries a non-zero subtotal.
func Priced(parts []Partition) bool {
	for _, p := range parts {
		if !p.Subtotal().IsZero() {
			return true
		}
	}
	return false
}

// Allocate splits total across partitions proportionally to their subtotals
// using largest-remainder rounding: every share is truncated to cents, then the
// leftover cents go one by one to the shares with the largest truncated
// remainders, later partitions winning ties. Shares are never negative and
// always sum to total. All-zero subtotals split the total evenly.
func Allocate(total decimal.Decimal, parts []Partition) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(parts))
	if len(parts) == 0 {
		return shares
	}
	if total.IsZero() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}
	if len(parts) == 1 {
		shares[0] = total
		return shares
	}

	weights := make([]decimal.Decimal, len(parts))
	sum := decimal.Zero
	for i, p := range parts {
		weights[i] = p.Subtotal()
		sum = sum.Add(weights[i])
	}
	if sum.IsZero() {
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
		sum = decimal.NewFromInt(int64(len(parts)))
	}

	remainders := make([]decimal.Decimal, len(parts))
	allocated := decimal.Zero
	for i := range parts {
		exact := total.Mul(weights[i]).Div(sum)
		shares[i] = exact.Truncate(2)
		remainders[i] = exact.Sub(shares[i])
		allocated = allocated.Add(shares[i])
	}

	order := make([]int, len(parts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := remainders[order[a]], remainders[order[b]]
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return order[a] > order[b]
	})

	leftover := total.Sub(allocated)
	for _, i := range order {
		if leftover.LessThan(cent) {
			break
		}
		shares[i] = shares[i].Add(cent)
		leftover = leftover.Sub(cent)
	}
	// sub-cent residue of a total with more than two decimals
	if leftover.IsPositive() {
		shares[order[0]] = shares[order[0]].Add(leftover)
	}
	return shares
}

var cent = decimal.New(1, -2)
