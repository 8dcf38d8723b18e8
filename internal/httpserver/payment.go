package httpserver

import (
	"context"
	"log"
	"net/http"

	"ecommerce-backend/internal/domain"
	paymentsvc "ecommerce-backend/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type PaymentService interface {
	Create(ctx context.Context, in paymentsvc.CreateInput) (*domain.Payment, error)
	Get(ctx context.Context, id string) (*domain.Payment, error)
	GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, in paymentsvc.UpdateStatusInput) (*domain.Payment, error)
	Process(ctx context.Context, id string, card paymentsvc.Card) (*domain.Payment, string, error)
	Refund(ctx context.Context, id string, in paymentsvc.RefundInput) (*domain.Payment, error)
}

func createPaymentHandler(logger *log.Logger, svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in paymentsvc.CreateInput
		if !bindJSON(c, logger, &in) {
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusCreated, "Payment created successfully", p)
	}
}

func getPaymentHandler(logger *log.Logger, svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Payment fetched successfully", p)
	}
}

func paymentByOrderHandler(logger *log.Logger, svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.GetByOrder(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Payment fetched successfully", p)
	}
}

func updatePaymentStatusHandler(logger *log.Logger, svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in paymentsvc.UpdateStatusInput
		if !bindJSON(c, logger, &in) {
			return
		}
		p, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Payment status updated successfully", p)
	}
}

func processPaymentHandler(logger *log.Logger, svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var card paymentsvc.Card
		if c.Request.ContentLength != 0 && !bindJSON(c, logger, &card) {
			return
		}
		p, msg, err := svc.Process(c.Request.Context(), c.Param("id"), card)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, msg, p)
	}
}

func refundPaymentHandler(logger *log.Logger, svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in paymentsvc.RefundInput
		if c.Request.ContentLength != 0 && !bindJSON(c, logger, &in) {
			return
		}
		p, err := svc.Refund(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Refund processed successfully", p)
	}
}
