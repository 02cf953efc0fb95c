package balance

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("balance: shop not found")
	ErrInvalidAmount = errors.New("balance: amount must be zero or greater")
	ErrInvalidMode   = errors.New("balance: unknown credit mode")
)

// CreditMode selects how a credit is applied to the available balance.
type CreditMode string

const (
	// ModeAdditive adds the credit to the existing balance.
	ModeAdditive CreditMode = "additive"
	// ModeOverwrite replaces the balance with the credit amount.
	ModeOverwrite CreditMode = "overwrite"
)

func ParseCreditMode(s string) (CreditMode, error) {
	switch m := CreditMode(s); m {
	case ModeAdditive, ModeOverwrite:
		return m, nil
	case "":
		return ModeAdditive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Account is a seller's settled balance.
type Account struct {
	ShopID    string
	Available decimal.Decimal
	UpdatedAt time.Time
}

func NewAccount(shopID string, available decimal.Decimal) (*Account, error) {
	if available.IsNegative() {
		return nil, ErrInvalidAmount
	}
	return &Account{ShopID: shopID, Available: available, UpdatedAt: time.Now().UTC()}, nil
}

func (a *Account) Credit(amount decimal.Decimal, mode CreditMode) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	switch mode {
	case ModeAdditive:
		a.Available = a.Available.Add(amount)
	case ModeOverwrite:
		a.Available = amount
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
