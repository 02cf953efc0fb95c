package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace/internal/domain/payment"
	"github.com/shopspring/decimal"
)

type itemRow struct {
	ProductID string          `json:"productId"`
	ShopID    string          `json:"shopId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"discountPrice"`
	Reviewed  bool            `json:"isReviewed"`
}

type addressRow struct {
	Country     string `json:"country"`
	City        string `json:"city"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	ZipCode     string `json:"zipCode"`
	AddressType string `json:"addressType"`
}

type buyerRow struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type paymentRow struct {
	ID     string `json:"id"`
	Method string `json:"type"`
	Status string `json:"status"`
}

const orderColumns = `id, shop_id, status, items, shipping_address, buyer, payment,
	items_subtotal, cart_total, total_price, delivered_at, idempotency_key, created_at, updated_at`

type OrderRepository struct {
	q         querier
	forUpdate bool
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	args, err := orderArgs(o)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO orders (id, shop_id, buyer_id, status, items, shipping_address, buyer, payment,
			items_subtotal, cart_total, total_price, delivered_at, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`, args...)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	args, err := orderArgs(o)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE orders SET shop_id = $2, buyer_id = $3, status = $4, items = $5, shipping_address = $6,
			buyer = $7, payment = $8, items_subtotal = $9, cart_total = $10, total_price = $11,
			delivered_at = $12, idempotency_key = $13, created_at = $14, updated_at = $15
		WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return expectOne(res, domain.ErrNotFound)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return expectOne(res, domain.ErrNotFound)
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE buyer_id = $1
		ORDER BY created_at DESC, id`, buyerID)
}

func (r *OrderRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE shop_id = $1
		ORDER BY created_at DESC, id`, shopID)
}

func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders
		ORDER BY delivered_at DESC NULLS LAST, created_at DESC, id`)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o                                   domain.Order
		status                              string
		itemsJSON, addrJSON, buyerJSON, pay []byte
		deliveredAt                         sql.NullTime
	)
	if err := s.Scan(&o.ID, &o.ShopID, &status, &itemsJSON, &addrJSON, &buyerJSON, &pay,
		&o.ItemsSubtotal, &o.CartTotal, &o.TotalPrice, &deliveredAt, &o.IdempotencyKey,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	if deliveredAt.Valid {
		t := deliveredAt.Time.UTC()
		o.DeliveredAt = &t
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	var (
		items []itemRow
		addr  addressRow
		buyer buyerRow
		p     paymentRow
	)
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(addrJSON, &addr); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(buyerJSON, &buyer); err != nil {
		return nil, fmt.Errorf("decode buyer: %w", err)
	}
	if err := json.Unmarshal(pay, &p); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}

	o.Items = make([]domain.Item, len(items))
	for i, it := range items {
		o.Items[i] = domain.Item(it)
	}
	o.ShippingAddress = domain.ShippingAddress(addr)
	o.Buyer = domain.Buyer(buyer)
	o.Payment = payment.Info{ID: p.ID, Method: p.Method, Status: payment.Status(p.Status)}
	return &o, nil
}

func orderArgs(o *domain.Order) ([]any, error) {
	if o == nil || o.ID == "" {
		return nil, fmt.Errorf("order repository: id is required")
	}
	items := make([]itemRow, len(o.Items))
	for i, it := range o.Items {
		items[i] = itemRow(it)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	addrJSON, err := json.Marshal(addressRow(o.ShippingAddress))
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}
	buyerJSON, err := json.Marshal(buyerRow(o.Buyer))
	if err != nil {
		return nil, fmt.Errorf("encode buyer: %w", err)
	}
	payJSON, err := json.Marshal(paymentRow{ID: o.Payment.ID, Method: o.Payment.Method, Status: string(o.Payment.Status)})
	if err != nil {
		return nil, fmt.Errorf("encode payment: %w", err)
	}

	var delivered *time.Time
	if o.DeliveredAt != nil {
		t := o.DeliveredAt.UTC()
		delivered = &t
	}
	return []any{
		o.ID, o.ShopID, o.Buyer.ID, string(o.Status), string(itemsJSON), string(addrJSON), string(buyerJSON), string(payJSON),
		o.ItemsSubtotal, o.CartTotal, o.TotalPrice, delivered, o.IdempotencyKey,
		o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	}, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
