package httppresentation

import (
	"context"
	"net/http"

	appBalance "github.com/Zhima-Mochi/marketplace/internal/application/balance"
	appInventory "github.com/Zhima-Mochi/marketplace/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	_ "github.com/Zhima-Mochi/marketplace/internal/presentation/http/docs"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const componentHTTPHandler = "http_server"

// Deps are the use cases and adapters the HTTP boundary drives.
type Deps struct {
	Checkout     *appOrder.CheckoutUseCase
	UpdateStatus *appOrder.UpdateStatusUseCase
	Orders       *appOrder.Service
	Restock      *appInventory.RestockUseCase
	Inventory    *appInventory.Service
	Balances     *appBalance.Service
	Verifier     TokenVerifier

	// Health reports readiness of backing stores; nil means always healthy.
	Health func(ctx context.Context) error
	// Metrics serves the Prometheus exposition; nil disables /metrics.
	Metrics http.Handler
}

type Server struct {
	engine *gin.Engine
	deps   Deps
	log    observability.Logger
}

func NewServer(deps Deps, tel observability.Observability) *Server {
	tel = observability.Or(tel)
	log := tel.Logger().With(observability.F("component", componentHTTPHandler))

	r := gin.New()
	r.HandleMethodNotAllowed = true
	// Trace → request logger + metrics → access log → recovery → handler
	r.Use(withTrace(), withObservability(log, tel), withAccessLog(log), withRecovery(log))

	s := &Server{engine: r, deps: deps, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.health)
	if s.deps.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v2 := s.engine.Group("/api/v2")
	seller := requireSeller(s.deps.Verifier)
	admin := requireAdmin(s.deps.Verifier)

	orders := v2.Group("/order")
	{
		orders.POST("/create-order", s.createOrder)
		orders.GET("/get-order/:id", s.getOrder)
		orders.GET("/get-all-orders/:userId", s.listBuyerOrders)
		orders.GET("/get-seller-all-orders/:shopId", s.listShopOrders)
		orders.PUT("/update-order-status/:id", seller, s.updateOrderStatus)
		orders.PUT("/order-refund/:id", optionalBuyer(s.deps.Verifier), s.requestRefund)
		orders.PUT("/order-refund-success/:id", seller, s.approveRefund)
		orders.GET("/admin-all-orders", admin, s.listAllOrders)
		orders.DELETE("/admin-delete-order/:id", admin, s.deleteOrder)
	}

	products := v2.Group("/product")
	{
		products.GET("/:id/inventory", s.getInventory)
		products.PUT("/:id/restock", seller, s.restock)
	}

	v2.GET("/shop/:id/balance", seller, s.getBalance)
}

func (s *Server) health(c *gin.Context) {
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.String(http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}
