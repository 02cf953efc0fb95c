package httppresentation

import (
	"time"

	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace/internal/domain/payment"
	"github.com/shopspring/decimal"
)

type itemDTO struct {
	ProductID     string          `json:"productId"`
	ShopID        string          `json:"shopId"`
	Name          string          `json:"name"`
	Qty           int             `json:"qty"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	IsReviewed    bool            `json:"isReviewed"`
}

type addressDTO struct {
	Country     string `json:"country"`
	City        string `json:"city"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	ZipCode     string `json:"zipCode"`
	AddressType string `json:"addressType"`
}

type buyerDTO struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type paymentDTO struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type orderDTO struct {
	ID              string          `json:"_id"`
	ShopID          string          `json:"shopId"`
	Cart            []itemDTO       `json:"cart"`
	ShippingAddress addressDTO      `json:"shippingAddress"`
	User            buyerDTO        `json:"user"`
	ItemsSubtotal   decimal.Decimal `json:"itemsSubtotal"`
	CartTotal       decimal.Decimal `json:"cartTotal"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Status          string          `json:"status"`
	PaymentInfo     paymentDTO      `json:"paymentInfo"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type createOrderRequest struct {
	Cart            []itemDTO       `json:"cart"`
	ShippingAddress addressDTO      `json:"shippingAddress"`
	User            buyerDTO        `json:"user"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	PaymentInfo     paymentDTO      `json:"paymentInfo"`
	IdempotencyKey  string          `json:"idempotencyKey"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type restockRequest struct {
	Qty int `json:"qty"`
}

type inventoryDTO struct {
	ProductID string    `json:"productId"`
	ShopID    string    `json:"shopId"`
	Stock     int       `json:"stock"`
	SoldOut   int       `json:"sold_out"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type balanceDTO struct {
	ShopID           string          `json:"shopId"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (r createOrderRequest) items() []domorder.Item {
	items := make([]domorder.Item, len(r.Cart))
	for i, it := range r.Cart {
		items[i] = domorder.Item{
			ProductID: it.ProductID,
			ShopID:    it.ShopID,
			Name:      it.Name,
			Quantity:  it.Qty,
			UnitPrice: it.DiscountPrice,
			Reviewed:  it.IsReviewed,
		}
	}
	return items
}

func (r createOrderRequest) payment() payment.Info {
	status := payment.Status(r.PaymentInfo.Status)
	if status == "" {
		status = payment.StatusPending
	}
	return payment.Info{ID: r.PaymentInfo.ID, Method: r.PaymentInfo.Type, Status: status}
}

func toOrderDTO(o *domorder.Order) orderDTO {
	cart := make([]itemDTO, len(o.Items))
	for i, it := range o.Items {
		cart[i] = itemDTO{
			ProductID:     it.ProductID,
			ShopID:        it.ShopID,
			Name:          it.Name,
			Qty:           it.Quantity,
			DiscountPrice: it.UnitPrice,
			IsReviewed:    it.Reviewed,
		}
	}
	return orderDTO{
		ID:              o.ID,
		ShopID:          o.ShopID,
		Cart:            cart,
		ShippingAddress: addressDTO(o.ShippingAddress),
		User:            buyerDTO(o.Buyer),
		ItemsSubtotal:   o.ItemsSubtotal,
		CartTotal:       o.CartTotal,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		PaymentInfo:     paymentDTO{ID: o.Payment.ID, Type: o.Payment.Method, Status: string(o.Payment.Status)},
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}

// toOrderDTOs never returns nil so empty listings encode as [].
func toOrderDTOs(orders []*domorder.Order) []orderDTO {
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	return out
}

func toInventoryDTO(r *dominventory.Record) inventoryDTO {
	return inventoryDTO{ProductID: r.ProductID, ShopID: r.ShopID, Stock: r.Stock, SoldOut: r.SoldOut, UpdatedAt: r.UpdatedAt}
}

func toBalanceDTO(a *dombalance.Account) balanceDTO {
	return balanceDTO{ShopID: a.ShopID, AvailableBalance: a.Available, UpdatedAt: a.UpdatedAt}
}
