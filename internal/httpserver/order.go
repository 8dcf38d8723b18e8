package httpserver

import (
	"context"
	"log"
	"net/http"

	"ecommerce-backend/internal/domain"
	ordersvc "ecommerce-backend/internal/service/order"
	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type OrderService interface {
	Create(ctx context.Context, in ordersvc.CreateInput) (*domain.Order, bool, error)
	Get(ctx context.Context, id string) (*ordersvc.Detail, error)
	Items(ctx context.Context, id string) (*ordersvc.Items, error)
	List(ctx context.Context, in ordersvc.ListInput) (*ordersvc.ListResult, error)
	ListByUser(ctx context.Context, userID string, in ordersvc.ListInput) (*ordersvc.ListResult, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func createOrderHandler(logger *log.Logger, svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ordersvc.CreateInput
		if !bindJSON(c, logger, &in) {
			return
		}
		in.IdempotencyKey = c.GetHeader(idempotencyHeader)
		order, created, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if !created {
			respond(c, http.StatusOK, "Order already created for this request", order)
			return
		}
		respond(c, http.StatusCreated, "Order created successfully", order)
	}
}

func listOrdersInput(c *gin.Context) (ordersvc.ListInput, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return ordersvc.ListInput{}, err
	}
	return ordersvc.ListInput{
		Page:      page,
		Status:    c.Query("status"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}, nil
}

func listOrdersHandler(logger *log.Logger, svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := listOrdersInput(c)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		res, err := svc.List(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Orders fetched successfully", res)
	}
}

func userOrdersHandler(logger *log.Logger, svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := listOrdersInput(c)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		res, err := svc.ListByUser(c.Request.Context(), c.Param("userId"), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "User orders fetched successfully", res)
	}
}

func getOrderHandler(logger *log.Logger, svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Order fetched successfully", order)
	}
}

func orderItemsHandler(logger *log.Logger, svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.Items(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Order items fetched successfully", items)
	}
}

func updateOrderStatusHandler(logger *log.Logger, svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateOrderStatusRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Order status updated successfully", order)
	}
}

func cancelOrderHandler(logger *log.Logger, svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Order cancelled successfully", order)
	}
}
