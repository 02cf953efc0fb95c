package httppresentation

import (
	"net/http"

	appInventory "github.com/Zhima-Mochi/marketplace/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	domorder "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/gin-gonic/gin"
)

const headerIdempotencyKey = "Idempotency-Key"

// @Summary Checkout a cart, one order per shop
// @Tags orders
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replay protection key"
// @Param input body createOrderRequest true "Cart"
// @Success 201 {object} map[string]any
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /order/create-order [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	key := c.GetHeader(headerIdempotencyKey)
	if key == "" {
		key = req.IdempotencyKey
	}

	res, err := s.deps.Checkout.Execute(c.Request.Context(), appOrder.CheckoutInput{
		IdempotencyKey:  key,
		Cart:            req.items(),
		ShippingAddress: domorder.ShippingAddress(req.ShippingAddress),
		Buyer:           domorder.Buyer(req.User),
		TotalPrice:      req.TotalPrice,
		Payment:         req.payment(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"success": true, "orders": toOrderDTOs(res.Orders), "replayed": res.Replayed})
}

// @Summary A single order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} errorBody
// @Router /order/get-order/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.deps.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrderDTO(o)})
}

// @Summary Orders of a buyer, newest first
// @Tags orders
// @Produce json
// @Param userId path string true "Buyer ID"
// @Success 200 {object} map[string]any
// @Router /order/get-all-orders/{userId} [get]
func (s *Server) listBuyerOrders(c *gin.Context) {
	orders, err := s.deps.Orders.ListByBuyer(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": toOrderDTOs(orders)})
}

// @Summary Orders of a shop, newest first
// @Tags orders
// @Produce json
// @Param shopId path string true "Shop ID"
// @Success 200 {object} map[string]any
// @Router /order/get-seller-all-orders/{shopId} [get]
func (s *Server) listShopOrders(c *gin.Context) {
	orders, err := s.deps.Orders.ListByShop(c.Request.Context(), c.Param("shopId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": toOrderDTOs(orders)})
}

// @Summary Dispatch or deliver an order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body statusRequest true "Target status"
// @Success 200 {object} map[string]any
// @Failure 401 {object} errorBody
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /order/update-order-status/{id} [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	o, ok := s.transition(c, "")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrderDTO(o)})
}

// @Summary Request a refund
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body statusRequest false "Defaults to Processing refund"
// @Success 200 {object} map[string]any
// @Router /order/order-refund/{id} [put]
func (s *Server) requestRefund(c *gin.Context) {
	o, ok := s.transition(c, domorder.StatusRefundRequested)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   toOrderDTO(o),
		"message": "Order refund request successfully submitted!",
	})
}

// @Summary Approve a refund
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body statusRequest false "Defaults to Refund Success"
// @Success 200 {object} map[string]any
// @Router /order/order-refund-success/{id} [put]
func (s *Server) approveRefund(c *gin.Context) {
	if _, ok := s.transition(c, domorder.StatusRefundApproved); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order refund successfully!"})
}

// transition binds the optional status body, falling back to def when the
// body names none, and runs the lifecycle use case for the current actor.
func (s *Server) transition(c *gin.Context, def domorder.Status) (*domorder.Order, bool) {
	var req statusRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return nil, false
		}
	}
	if req.Status == "" {
		if def == "" {
			badRequest(c, "status is required")
			return nil, false
		}
		req.Status = string(def)
	}

	o, err := s.deps.UpdateStatus.Execute(c.Request.Context(), appOrder.UpdateStatusInput{
		OrderID: c.Param("id"),
		Status:  req.Status,
		Actor:   actorOf(c),
	})
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return o, true
}

// @Summary All orders, delivered first
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorBody
// @Router /order/admin-all-orders [get]
func (s *Server) listAllOrders(c *gin.Context) {
	orders, err := s.deps.Orders.ListAll(c.Request.Context(), actorOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": toOrderDTOs(orders)})
}

// @Summary Delete an order
// @Tags admin
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} errorBody
// @Router /order/admin-delete-order/{id} [delete]
func (s *Server) deleteOrder(c *gin.Context) {
	if err := s.deps.Orders.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order deleted successfully"})
}

// @Summary Stock position of a product
// @Tags inventory
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} errorBody
// @Router /product/{id}/inventory [get]
func (s *Server) getInventory(c *gin.Context) {
	rec, err := s.deps.Inventory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inventory": toInventoryDTO(rec)})
}

// @Summary Restock a product
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body restockRequest true "Units to add"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorBody
// @Failure 403 {object} errorBody
// @Router /product/{id}/restock [put]
func (s *Server) restock(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	rec, err := s.deps.Restock.Execute(c.Request.Context(), appInventory.RestockInput{
		ShopID:    actorOf(c).ID,
		ProductID: c.Param("id"),
		Quantity:  req.Qty,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inventory": toInventoryDTO(rec)})
}

// @Summary Settled balance of the caller's shop
// @Tags shops
// @Produce json
// @Param id path string true "Shop ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorBody
// @Router /shop/{id}/balance [get]
func (s *Server) getBalance(c *gin.Context) {
	acct, err := s.deps.Balances.Get(c.Request.Context(), actorOf(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "shop": toBalanceDTO(acct)})
}
