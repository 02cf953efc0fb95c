package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("inventory: product not found")
	ErrInvalidQuantity = errors.New("inventory: quantity must be greater than zero")
)

// Record is the stock position of one product.
type Record struct {
	ProductID string
	ShopID    string
	Stock     int
	SoldOut   int
	UpdatedAt time.Time
}

func NewRecord(productID, shopID string, stock, soldOut int) (*Record, error) {
	if stock < 0 || soldOut < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Record{
		ProductID: productID,
		ShopID:    shopID,
		Stock:     stock,
		SoldOut:   soldOut,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Restock returns qty units to stock and takes them off the sold-out counter.
// SoldOut never drops below zero.
func (r *Record) Restock(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	r.Stock += qty
	r.SoldOut -= qty
	if r.SoldOut < 0 {
		r.SoldOut = 0
	}
	r.touch()
	return nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func (r *Record) touch() {
	r.UpdatedAt = time.Now().UTC()
}
