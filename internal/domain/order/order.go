package order

import (
	"errors"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/domain/payment"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: conflict")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrEmptyCart              = errors.New("order: cart is empty")
	ErrMissingShop            = errors.New("order: item shop id is required")
	ErrMissingProduct         = errors.New("order: item product id is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice           = errors.New("order: price must be zero or greater")
	ErrShopMismatch           = errors.New("order: item belongs to another shop")
)

// Item is a single cart line. ShopID always matches the owning order.
type Item struct {
	ProductID string
	ShopID    string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Reviewed  bool
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) validate() error {
	switch {
	case i.ShopID == "":
		return ErrMissingShop
	case i.ProductID == "":
		return ErrMissingProduct
	case i.Quantity <= 0:
		return ErrInvalidQuantity
	case i.UnitPrice.IsNegative():
		return ErrInvalidPrice
	}
	return nil
}

type Buyer struct {
	ID    string
	Name  string
	Email string
}

type ShippingAddress struct {
	Country     string
	City        string
	Address1    string
	Address2    string
	ZipCode     string
	AddressType string
}

type Order struct {
	ID              string
	ShopID          string
	Items           []Item
	ShippingAddress ShippingAddress
	Buyer           Buyer
	ItemsSubtotal   decimal.Decimal
	// CartTotal is the aggregate amount submitted with the whole cart.
	CartTotal decimal.Decimal
	// TotalPrice is this shop's allocated share of CartTotal; settlement credits it.
	TotalPrice     decimal.Decimal
	Payment        payment.Info
	Status         Status
	DeliveredAt    *time.Time
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New builds an order in Processing for a single shop partition.
func New(id string, p Partition, share, cartTotal decimal.Decimal, buyer Buyer, addr ShippingAddress, pay payment.Info, idempotencyKey string) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if share.IsNegative() || cartTotal.IsNegative() {
		return nil, ErrInvalidPrice
	}
	items := make([]Item, len(p.Items))
	for i, it := range p.Items {
		if err := it.validate(); err != nil {
			return nil, err
		}
		if it.ShopID != p.ShopID {
			return nil, ErrShopMismatch
		}
		items[i] = it
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		ShopID:          p.ShopID,
		Items:           items,
		ShippingAddress: addr,
		Buyer:           buyer,
		ItemsSubtotal:   p.Subtotal(),
		CartTotal:       cartTotal,
		TotalPrice:      share,
		Payment:         pay,
		Status:          StatusProcessing,
		IdempotencyKey:  idempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Apply moves the order through the state machine. The order is left untouched on error.
func (o *Order) Apply(event Event) error {
	state, err := stateFor(o.Status)
	if err != nil {
		return err
	}
	var next OrderState
	switch event {
	case EventDispatch:
		next, err = state.OnDispatch(o)
	case EventDeliver:
		next, err = state.OnDeliver(o)
	case EventRequestRefund:
		next, err = state.OnRefundRequested(o)
	case EventApproveRefund:
		next, err = state.OnRefundApproved(o)
	default:
		return ErrInvalidStateTransition
	}
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

// MarkDelivered stamps delivery and settles the payment record.
func (o *Order) MarkDelivered(at time.Time) {
	t := at.UTC()
	o.DeliveredAt = &t
	o.Payment.Status = payment.StatusSucceeded
	o.touch()
}

// Settlement splits TotalPrice into the marketplace service charge and the seller payout.
func (o *Order) Settlement(rate decimal.Decimal) (charge, payout decimal.Decimal) {
	charge = o.TotalPrice.Mul(rate).Round(2)
	payout = o.TotalPrice.Sub(charge)
	return charge, payout
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
