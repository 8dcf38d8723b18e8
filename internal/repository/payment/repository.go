package payment

import (
	"context"

	"ecommerce-backend/internal/domain"
)

// ErrDuplicate is returned by Create when the order already has a payment.
var ErrDuplicate = &domain.Error{Kind: domain.ErrAlreadyExists, Message: "Payment already exists for this order"}

// OrderCascade moves the paid order to To, but only while it is in one of From.
type OrderCascade struct {
	From []domain.OrderStatus
	To   domain.OrderStatus
}

// Transition is a compare-and-set status change. An empty From accepts any current status.
// Nil optional fields leave the stored value untouched.
type Transition struct {
	PaymentID         string
	From              []domain.PaymentStatus
	To                domain.PaymentStatus
	TransactionID     *string
	GatewayResponse   *string
	RefundAmountCents *int64
	Order             *OrderCascade
}

type Repository interface {
	// Create stores a PENDING payment and links it onto its order.
	Create(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	// Transition applies t and its order cascade in one transaction. It fails with
	// domain.ErrInvalidState when the payment is not in one of t.From.
	Transition(ctx context.Context, t Transition) (*domain.Payment, error)
}
