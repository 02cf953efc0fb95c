package order

import "sort"

// SortNewestFirst orders by CreatedAt descending, ties broken by id.
func SortNewestFirst(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// SortForAdmin puts delivered orders first (latest delivery first), then the rest newest first.
func SortForAdmin(orders []*Order) {
	SortNewestFirst(orders)
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].DeliveredAt, orders[j].DeliveredAt
		switch {
		case a != nil && b != nil:
			return a.After(*b)
		case a != nil:
			return true
		default:
			return false
		}
	})
}
