package httpserver

import (
	"context"
	"log"
	"net/http"

	"ecommerce-backend/internal/domain"
	cartsvc "ecommerce-backend/internal/service/cart"
	"github.com/gin-gonic/gin"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Items(ctx context.Context, userID string) (*cartsvc.Items, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartLine, error)
	UpdateItem(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error)
	RemoveItem(ctx context.Context, userID, lineID string) (*domain.CartLine, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

// addCartItemRequest adds one unit when quantity is omitted.
type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func getCartHandler(logger *log.Logger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Get(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Cart fetched successfully", cart)
	}
}

func getCartItemsHandler(logger *log.Logger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.Items(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Cart items fetched successfully", items)
	}
}

func addCartItemHandler(logger *log.Logger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		if req.ProductID == "" {
			respondError(c, logger, domain.Errorf(domain.ErrInvalidArgument, "Product ID is required"))
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		line, err := svc.AddItem(c.Request.Context(), c.Param("userId"), req.ProductID, quantity)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusCreated, "Item added to cart successfully", line)
	}
}

func updateCartItemHandler(logger *log.Logger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCartItemRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		line, err := svc.UpdateItem(c.Request.Context(), c.Param("userId"), c.Param("itemId"), req.Quantity)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Cart item updated successfully", line)
	}
}

func removeCartItemHandler(logger *log.Logger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		line, err := svc.RemoveItem(c.Request.Context(), c.Param("userId"), c.Param("itemId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Cart item removed successfully", line)
	}
}

func clearCartHandler(logger *log.Logger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Clear(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Cart cleared successfully", cart)
	}
}
