package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
)

type OrderRepository struct {
	s *Store
	j *journal
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	defer r.s.standalone(r.j)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	r.s.orders[order.ID] = order.Clone()
	id := order.ID
	r.j.record(func() { delete(r.s.orders, id) })
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	defer r.s.standalone(r.j)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	defer r.s.standalone(r.j)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, exists := r.s.orders[order.ID]
	if !exists {
		return domain.ErrNotFound
	}
	r.s.orders[order.ID] = order.Clone()
	r.j.record(func() { r.s.orders[prev.ID] = prev })
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	defer r.s.standalone(r.j)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, exists := r.s.orders[id]
	if !exists {
		return domain.ErrNotFound
	}
	delete(r.s.orders, id)
	r.j.record(func() { r.s.orders[prev.ID] = prev })
	return nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	out := r.filter(func(o *domain.Order) bool { return o.Buyer.ID == buyerID })
	domain.SortNewestFirst(out)
	return out, ctx.Err()
}

func (r *OrderRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Order, error) {
	out := r.filter(func(o *domain.Order) bool { return o.ShopID == shopID })
	domain.SortNewestFirst(out)
	return out, ctx.Err()
}

func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	out := r.filter(func(*domain.Order) bool { return true })
	domain.SortForAdmin(out)
	return out, ctx.Err()
}

func (r *OrderRepository) filter(keep func(*domain.Order) bool) []*domain.Order {
	defer r.s.standalone(r.j)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range r.s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}
