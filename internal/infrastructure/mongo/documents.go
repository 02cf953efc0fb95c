package mongo

import (
	"fmt"
	"time"

	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace/internal/domain/payment"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type itemDoc struct {
	ProductID     string               `bson:"productId"`
	ShopID        string               `bson:"shopId"`
	Name          string               `bson:"name"`
	Qty           int                  `bson:"qty"`
	DiscountPrice primitive.Decimal128 `bson:"discountPrice"`
	IsReviewed    bool                 `bson:"isReviewed"`
}

type addressDoc struct {
	Country     string `bson:"country"`
	City        string `bson:"city"`
	Address1    string `bson:"address1"`
	Address2    string `bson:"address2"`
	ZipCode     string `bson:"zipCode"`
	AddressType string `bson:"addressType"`
}

type buyerDoc struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

type paymentDoc struct {
	ID     string `bson:"id"`
	Type   string `bson:"type"`
	Status string `bson:"status"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	ShopID          string               `bson:"shopId"`
	Cart            []itemDoc            `bson:"cart"`
	ShippingAddress addressDoc           `bson:"shippingAddress"`
	User            buyerDoc             `bson:"user"`
	ItemsSubtotal   primitive.Decimal128 `bson:"itemsSubtotal"`
	CartTotal       primitive.Decimal128 `bson:"cartTotal"`
	TotalPrice      primitive.Decimal128 `bson:"totalPrice"`
	Status          string               `bson:"status"`
	PaymentInfo     paymentDoc           `bson:"paymentInfo"`
	DeliveredAt     *time.Time           `bson:"deliveredAt,omitempty"`
	IdempotencyKey  string               `bson:"idempotencyKey,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

type productDoc struct {
	ID        string    `bson:"_id"`
	ShopID    string    `bson:"shopId"`
	Stock     int       `bson:"stock"`
	SoldOut   int       `bson:"sold_out"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type shopDoc struct {
	ID               string               `bson:"_id"`
	AvailableBalance primitive.Decimal128 `bson:"availableBalance"`
	UpdatedAt        time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// shopspring always renders a plain decimal string
		panic(fmt.Sprintf("decimal128: %v", err))
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func newOrderDoc(o *domain.Order) orderDoc {
	cart := make([]itemDoc, len(o.Items))
	for i, it := range o.Items {
		cart[i] = itemDoc{
			ProductID:     it.ProductID,
			ShopID:        it.ShopID,
			Name:          it.Name,
			Qty:           it.Quantity,
			DiscountPrice: toDecimal128(it.UnitPrice),
			IsReviewed:    it.Reviewed,
		}
	}
	doc := orderDoc{
		ID:              o.ID,
		ShopID:          o.ShopID,
		Cart:            cart,
		ShippingAddress: addressDoc(o.ShippingAddress),
		User:            buyerDoc(o.Buyer),
		ItemsSubtotal:   toDecimal128(o.ItemsSubtotal),
		CartTotal:       toDecimal128(o.CartTotal),
		TotalPrice:      toDecimal128(o.TotalPrice),
		Status:          string(o.Status),
		PaymentInfo:     paymentDoc{ID: o.Payment.ID, Type: o.Payment.Method, Status: string(o.Payment.Status)},
		IdempotencyKey:  o.IdempotencyKey,
		CreatedAt:       o.CreatedAt.UTC(),
		UpdatedAt:       o.UpdatedAt.UTC(),
	}
	if o.DeliveredAt != nil {
		t := o.DeliveredAt.UTC()
		doc.DeliveredAt = &t
	}
	return doc
}

func (d orderDoc) toDomain() (*domain.Order, error) {
	items := make([]domain.Item, len(d.Cart))
	for i, it := range d.Cart {
		price, err := fromDecimal128(it.DiscountPrice)
		if err != nil {
			return nil, fmt.Errorf("decode item price: %w", err)
		}
		items[i] = domain.Item{
			ProductID: it.ProductID,
			ShopID:    it.ShopID,
			Name:      it.Name,
			Quantity:  it.Qty,
			UnitPrice: price,
			Reviewed:  it.IsReviewed,
		}
	}
	subtotal, err := fromDecimal128(d.ItemsSubtotal)
	if err != nil {
		return nil, fmt.Errorf("decode items subtotal: %w", err)
	}
	cartTotal, err := fromDecimal128(d.CartTotal)
	if err != nil {
		return nil, fmt.Errorf("decode cart total: %w", err)
	}
	total, err := fromDecimal128(d.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("decode total price: %w", err)
	}

	o := &domain.Order{
		ID:              d.ID,
		ShopID:          d.ShopID,
		Items:           items,
		ShippingAddress: domain.ShippingAddress(d.ShippingAddress),
		Buyer:           domain.Buyer(d.User),
		ItemsSubtotal:   subtotal,
		CartTotal:       cartTotal,
		TotalPrice:      total,
		Payment:         payment.Info{ID: d.PaymentInfo.ID, Method: d.PaymentInfo.Type, Status: payment.Status(d.PaymentInfo.Status)},
		Status:          domain.Status(d.Status),
		IdempotencyKey:  d.IdempotencyKey,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	if d.DeliveredAt != nil {
		t := d.DeliveredAt.UTC()
		o.DeliveredAt = &t
	}
	return o, nil
}

func (d productDoc) toDomain() *dominventory.Record {
	return &dominventory.Record{
		ProductID: d.ID,
		ShopID:    d.ShopID,
		Stock:     d.Stock,
		SoldOut:   d.SoldOut,
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (d shopDoc) toDomain() (*dombalance.Account, error) {
	avail, err := fromDecimal128(d.AvailableBalance)
	if err != nil {
		return nil, fmt.Errorf("decode available balance: %w", err)
	}
	return &dombalance.Account{ShopID: d.ID, Available: avail, UpdatedAt: d.UpdatedAt.UTC()}, nil
}
