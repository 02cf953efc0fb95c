package httppresentation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appBalance "github.com/Zhima-Mochi/marketplace/internal/application/balance"
	appInventory "github.com/Zhima-Mochi/marketplace/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/id"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/memory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() { gin.SetMode(gin.TestMode) }

type harness struct {
	t        *testing.T
	store    *memory.Store
	verifier *auth.Verifier
	handler  http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	for _, p := range []struct{ id, shop string }{{"p1", "s1"}, {"p2", "s2"}} {
		rec, err := dominventory.NewRecord(p.id, p.shop, 10, 4)
		if err != nil {
			t.Fatal(err)
		}
		store.PutProduct(rec)
	}
	for _, shop := range []string{"s1", "s2"} {
		acct, err := dombalance.NewAccount(shop, decimal.Zero)
		if err != nil {
			t.Fatal(err)
		}
		store.PutShop(acct)
	}

	verifier := auth.NewVerifier("test-secret", time.Hour)
	srv := NewServer(Deps{
		Checkout:     appOrder.NewCheckoutUseCase(store.Transactor(), id.NewUUIDGenerator(), memory.NewIdempotencyStore(time.Hour), nil, nil),
		UpdateStatus: appOrder.NewUpdateStatusUseCase(store.Transactor(), nil, appOrder.DefaultSettlement(), nil),
		Orders:       appOrder.NewService(store.Orders(), nil),
		Restock:      appInventory.NewRestockUseCase(store.Inventory(), nil, nil),
		Inventory:    appInventory.NewService(store.Inventory(), nil),
		Balances:     appBalance.NewService(store.Balances(), nil),
		Verifier:     verifier,
	}, nil)

	return &harness{t: t, store: store, verifier: verifier, handler: srv.Engine()}
}

func (h *harness) token(id, role string) string {
	h.t.Helper()
	tok, err := h.verifier.Issue(auth.Principal{ID: id, Role: role})
	if err != nil {
		h.t.Fatal(err)
	}
	return tok
}

func (h *harness) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) seller(shop string) *http.Cookie {
	return &http.Cookie{Name: cookieSellerToken, Value: h.token(shop, "")}
}

func (h *harness) user(id, role string) *http.Cookie {
	return &http.Cookie{Name: cookieUserToken, Value: h.token(id, role)}
}

type ordersResponse struct {
	Success  bool `json:"success"`
	Replayed bool `json:"replayed"`
	Orders   []struct {
		ID         string          `json:"_id"`
		ShopID     string          `json:"shopId"`
		Status     string          `json:"status"`
		TotalPrice decimal.Decimal `json:"totalPrice"`
	} `json:"orders"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func cartBody(key string) map[string]any {
	return map[string]any{
		"cart": []map[string]any{
			{"productId": "p1", "shopId": "s1", "name": "mug", "qty": 2, "discountPrice": 25},
			{"productId": "p2", "shopId": "s2", "name": "pen", "qty": 1, "discountPrice": 50},
		},
		"shippingAddress": map[string]any{"city": "Taipei", "country": "TW"},
		"user":            map[string]any{"_id": "u1", "name": "Ada"},
		"totalPrice":      100,
		"paymentInfo":     map[string]any{"id": "pi_1", "type": "card", "status": "Succeeded"},
		"idempotencyKey":  key,
	}
}

func (h *harness) checkout() map[string]string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v2/order/create-order", cartBody(""))
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("create-order = %d %s", rec.Code, rec.Body.String())
	}
	res := decode[ordersResponse](h.t, rec)
	byShop := make(map[string]string, len(res.Orders))
	for _, o := range res.Orders {
		byShop[o.ShopID] = o.ID
	}
	return byShop
}

func TestCreateOrderSplitsByShop(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/v2/order/create-order", cartBody("k1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	res := decode[ordersResponse](t, rec)
	if !res.Success || res.Replayed || len(res.Orders) != 2 {
		t.Fatalf("response = %+v", res)
	}
	sum := decimal.Zero
	for _, o := range res.Orders {
		if o.Status != "Processing" {
			t.Fatalf("order %s status %q", o.ID, o.Status)
		}
		sum = sum.Add(o.TotalPrice)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("shares sum = %s, want 100", sum)
	}

	replay := h.do(http.MethodPost, "/api/v2/order/create-order", cartBody("k1"))
	if replay.Code != http.StatusOK {
		t.Fatalf("replay status = %d", replay.Code)
	}
	again := decode[ordersResponse](t, replay)
	if !again.Replayed || len(again.Orders) != 2 {
		t.Fatalf("replay = %+v", again)
	}

	list := decode[ordersResponse](t, h.do(http.MethodGet, "/api/v2/order/get-all-orders/u1", nil))
	if len(list.Orders) != 2 {
		t.Fatalf("buyer orders = %d, want 2", len(list.Orders))
	}
	shop := decode[ordersResponse](t, h.do(http.MethodGet, "/api/v2/order/get-seller-all-orders/s1", nil))
	if len(shop.Orders) != 1 || shop.Orders[0].ShopID != "s1" {
		t.Fatalf("shop orders = %+v", shop.Orders)
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	h := newHarness(t)

	if rec := h.do(http.MethodPost, "/api/v2/order/create-order", "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json = %d", rec.Code)
	}
	empty := cartBody("")
	empty["cart"] = []map[string]any{}
	rec := h.do(http.MethodPost, "/api/v2/order/create-order", empty)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty cart = %d", rec.Code)
	}
	body := decode[errorBody](t, rec)
	if body.Success || body.Message == "" {
		t.Fatalf("error body = %+v", body)
	}
}

func TestEmptyListingEncodesArray(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/v2/order/get-all-orders/nobody", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"orders":[]`)) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestDispatchDeliverCreditsSeller(t *testing.T) {
	h := newHarness(t)
	orderID := h.checkout()["s2"]
	path := "/api/v2/order/update-order-status/" + orderID

	rec := h.do(http.MethodPut, path, map[string]string{"status": "Transferred to delivery partner"}, h.seller("s2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("dispatch = %d %s", rec.Code, rec.Body.String())
	}
	inv := decode[struct {
		Inventory inventoryDTO `json:"inventory"`
	}](t, h.do(http.MethodGet, "/api/v2/product/p2/inventory", nil))
	if inv.Inventory.Stock != 11 || inv.Inventory.SoldOut != 3 {
		t.Fatalf("inventory after dispatch = %+v", inv.Inventory)
	}

	if rec := h.do(http.MethodPut, path, map[string]string{"status": "Delivered"}, h.seller("s2")); rec.Code != http.StatusOK {
		t.Fatalf("deliver = %d %s", rec.Code, rec.Body.String())
	}
	bal := decode[struct {
		Shop balanceDTO `json:"shop"`
	}](t, h.do(http.MethodGet, "/api/v2/shop/s2/balance", nil, h.seller("s2")))
	// s2 carries 50 of the 100 total; 10% service charge
	if !bal.Shop.AvailableBalance.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("balance = %s, want 45", bal.Shop.AvailableBalance)
	}

	if rec := h.do(http.MethodPut, path, map[string]string{"status": "Delivered"}, h.seller("s2")); rec.Code != http.StatusConflict {
		t.Fatalf("second deliver = %d, want 409", rec.Code)
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	h := newHarness(t)
	orderID := h.checkout()["s1"]
	path := "/api/v2/order/update-order-status/" + orderID
	dispatch := map[string]string{"status": "Transferred to delivery partner"}

	cases := []struct {
		name    string
		path    string
		body    any
		cookies []*http.Cookie
		want    int
	}{
		{"no cookie", path, dispatch, nil, http.StatusUnauthorized},
		{"garbage token", path, dispatch, []*http.Cookie{{Name: cookieSellerToken, Value: "nope"}}, http.StatusUnauthorized},
		{"other shop", path, dispatch, []*http.Cookie{h.seller("s2")}, http.StatusForbidden},
		{"missing status", path, map[string]string{}, []*http.Cookie{h.seller("s1")}, http.StatusBadRequest},
		{"unknown status", path, map[string]string{"status": "Lost"}, []*http.Cookie{h.seller("s1")}, http.StatusConflict},
		{"skip to delivered", path, map[string]string{"status": "Delivered"}, []*http.Cookie{h.seller("s1")}, http.StatusConflict},
		{"unknown order", "/api/v2/order/update-order-status/missing", dispatch, []*http.Cookie{h.seller("s1")}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(http.MethodPut, tc.path, tc.body, tc.cookies...)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestRefundFlowRestocks(t *testing.T) {
	h := newHarness(t)
	orderID := h.checkout()["s1"]

	rec := h.do(http.MethodPut, "/api/v2/order/order-refund/"+orderID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refund request = %d %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Order   orderDTO `json:"order"`
		Message string   `json:"message"`
	}](t, rec)
	if body.Order.Status != "Processing refund" || body.Message == "" {
		t.Fatalf("refund response = %+v", body)
	}

	if rec := h.do(http.MethodPut, "/api/v2/order/order-refund-success/"+orderID, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous approve = %d, want 401", rec.Code)
	}
	if rec := h.do(http.MethodPut, "/api/v2/order/order-refund-success/"+orderID, nil, h.seller("s1")); rec.Code != http.StatusOK {
		t.Fatalf("approve = %d %s", rec.Code, rec.Body.String())
	}

	inv := decode[struct {
		Inventory inventoryDTO `json:"inventory"`
	}](t, h.do(http.MethodGet, "/api/v2/product/p1/inventory", nil))
	if inv.Inventory.Stock != 12 || inv.Inventory.SoldOut != 2 {
		t.Fatalf("inventory after refund = %+v", inv.Inventory)
	}
}

func TestAdminEndpoints(t *testing.T) {
	h := newHarness(t)
	orders := h.checkout()

	if rec := h.do(http.MethodGet, "/api/v2/order/admin-all-orders", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/v2/order/admin-all-orders", nil, h.user("u1", "user")); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin = %d", rec.Code)
	}

	admin := h.user("root", roleAdmin)
	all := decode[ordersResponse](t, h.do(http.MethodGet, "/api/v2/order/admin-all-orders", nil, admin))
	if len(all.Orders) != 2 {
		t.Fatalf("admin orders = %d, want 2", len(all.Orders))
	}

	path := "/api/v2/order/admin-delete-order/" + orders["s1"]
	if rec := h.do(http.MethodDelete, path, nil, admin); rec.Code != http.StatusOK {
		t.Fatalf("delete = %d %s", rec.Code, rec.Body.String())
	}
	if rec := h.do(http.MethodDelete, path, nil, admin); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rec.Code)
	}
}

func TestRestockAndBalanceOwnership(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPut, "/api/v2/product/p1/restock", map[string]int{"qty": 3}, h.seller("s1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("restock = %d %s", rec.Code, rec.Body.String())
	}
	inv := decode[struct {
		Inventory inventoryDTO `json:"inventory"`
	}](t, rec)
	if inv.Inventory.Stock != 13 || inv.Inventory.SoldOut != 1 {
		t.Fatalf("inventory = %+v", inv.Inventory)
	}

	if rec := h.do(http.MethodPut, "/api/v2/product/p1/restock", map[string]int{"qty": 0}, h.seller("s1")); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero qty = %d, want 400", rec.Code)
	}
	if rec := h.do(http.MethodPut, "/api/v2/product/p1/restock", map[string]int{"qty": 1}, h.seller("s2")); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign restock = %d, want 403", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/v2/product/ghost/inventory", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product = %d, want 404", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/v2/shop/s1/balance", nil, h.seller("s2")); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign balance = %d, want 403", rec.Code)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("request id = %q", got)
	}
}

func TestGetOrder(t *testing.T) {
	h := newHarness(t)
	orderID := h.checkout()["s1"]

	rec := h.do(http.MethodGet, "/api/v2/order/get-order/"+orderID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Order orderDTO `json:"order"`
	}](t, rec)
	if body.Order.ID != orderID || body.Order.ShopID != "s1" || len(body.Order.Cart) != 1 {
		t.Fatalf("order = %+v", body.Order)
	}

	if rec := h.do(http.MethodGet, "/api/v2/order/get-order/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown order = %d, want 404", rec.Code)
	}
}

func TestCreateOrderKeyReuseWithOtherCartConflicts(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(http.MethodPost, "/api/v2/order/create-order", cartBody("k7")); rec.Code != http.StatusCreated {
		t.Fatalf("first = %d", rec.Code)
	}
	changed := cartBody("k7")
	changed["totalPrice"] = 120
	if rec := h.do(http.MethodPost, "/api/v2/order/create-order", changed); rec.Code != http.StatusConflict {
		t.Fatalf("reused key = %d, want 409", rec.Code)
	}
	other := cartBody("k7")
	other["user"] = map[string]any{"_id": "u2", "name": "Bob"}
	rec := h.do(http.MethodPost, "/api/v2/order/create-order", other)
	if rec.Code != http.StatusCreated {
		t.Fatalf("other buyer = %d, want 201", rec.Code)
	}
	if res := decode[ordersResponse](t, rec); res.Replayed {
		t.Fatal("other buyer replayed first buyer's checkout")
	}
}
