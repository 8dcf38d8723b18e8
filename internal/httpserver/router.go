package httpserver

import (
	"errors"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries the services the routes delegate to. Every field is required.
type Deps struct {
	CartSvc     CartService
	OrderSvc    OrderService
	PaymentSvc  PaymentService
	ProductSvc  ProductService
	CategorySvc CategoryService
	UserSvc     UserService
	ChatSvc     ChatService
}

func (d Deps) validate() error {
	switch {
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service is required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service is required")
	case d.PaymentSvc == nil:
		return errors.New("httpserver: payment service is required")
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service is required")
	case d.CategorySvc == nil:
		return errors.New("httpserver: category service is required")
	case d.UserSvc == nil:
		return errors.New("httpserver: user service is required")
	case d.ChatSvc == nil:
		return errors.New("httpserver: chat service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db Pinger, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(corsOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", registerHandler(logger, deps.UserSvc))
	auth.POST("/login", loginHandler(logger, deps.UserSvc))

	users := api.Group("/users")
	users.GET("", listUsersHandler(logger, deps.UserSvc))
	users.POST("", createUserHandler(logger, deps.UserSvc))
	users.GET("/:id", getUserHandler(logger, deps.UserSvc))
	users.PUT("/:id", updateUserHandler(logger, deps.UserSvc))
	users.DELETE("/:id", deleteUserHandler(logger, deps.UserSvc))

	categories := api.Group("/categories")
	categories.GET("", listCategoriesHandler(logger, deps.CategorySvc))
	categories.POST("", createCategoryHandler(logger, deps.CategorySvc))
	categories.GET("/:id", getCategoryHandler(logger, deps.CategorySvc))
	categories.PUT("/:id", updateCategoryHandler(logger, deps.CategorySvc))
	categories.DELETE("/:id", deleteCategoryHandler(logger, deps.CategorySvc))

	products := api.Group("/products")
	products.GET("", listProductsHandler(logger, deps.ProductSvc))
	products.GET("/search", searchProductsHandler(logger, deps.ProductSvc))
	products.GET("/category/:categoryId", productsByCategoryHandler(logger, deps.ProductSvc))
	products.POST("", createProductHandler(logger, deps.ProductSvc))
	products.GET("/:id", getProductHandler(logger, deps.ProductSvc))
	products.PUT("/:id", updateProductHandler(logger, deps.ProductSvc))
	products.PUT("/:id/stock", adjustStockHandler(logger, deps.ProductSvc))
	products.DELETE("/:id", deleteProductHandler(logger, deps.ProductSvc))

	cart := api.Group("/cart")
	cart.GET("/:userId", getCartHandler(logger, deps.CartSvc))
	cart.GET("/:userId/items", getCartItemsHandler(logger, deps.CartSvc))
	cart.POST("/:userId/items", addCartItemHandler(logger, deps.CartSvc))
	cart.PUT("/:userId/items/:itemId", updateCartItemHandler(logger, deps.CartSvc))
	cart.DELETE("/:userId/items/:itemId", removeCartItemHandler(logger, deps.CartSvc))
	cart.DELETE("/:userId", clearCartHandler(logger, deps.CartSvc))

	orders := api.Group("/orders")
	orders.GET("", listOrdersHandler(logger, deps.OrderSvc))
	orders.POST("", createOrderHandler(logger, deps.OrderSvc))
	orders.GET("/user/:userId", userOrdersHandler(logger, deps.OrderSvc))
	orders.GET("/:id", getOrderHandler(logger, deps.OrderSvc))
	orders.GET("/:id/items", orderItemsHandler(logger, deps.OrderSvc))
	orders.PUT("/:id/status", updateOrderStatusHandler(logger, deps.OrderSvc))
	orders.PUT("/:id/cancel", cancelOrderHandler(logger, deps.OrderSvc))

	payments := api.Group("/payments")
	payments.POST("", createPaymentHandler(logger, deps.PaymentSvc))
	payments.GET("/:id", getPaymentHandler(logger, deps.PaymentSvc))
	payments.GET("/order/:orderId", paymentByOrderHandler(logger, deps.PaymentSvc))
	payments.PUT("/:id/status", updatePaymentStatusHandler(logger, deps.PaymentSvc))
	payments.POST("/:id/process", processPaymentHandler(logger, deps.PaymentSvc))
	payments.POST("/:id/refund", refundPaymentHandler(logger, deps.PaymentSvc))

	chat := api.Group("/chat")
	chat.POST("/send", sendChatHandler(logger, deps.ChatSvc))
	chat.GET("/history/:userId", chatHistoryHandler(logger, deps.ChatSvc))

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "Idempotency-Key")
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
