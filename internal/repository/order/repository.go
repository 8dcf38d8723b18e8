package order

import (
	"context"

	"ecommerce-backend/internal/domain"
)

var (
	// ErrDuplicateNumber is returned when the generated order number is already taken.
	ErrDuplicateNumber = &domain.Error{Kind: domain.ErrAlreadyExists, Message: "Order number already in use"}
	// ErrDuplicateIdempotencyKey is returned when the user already placed an order with the same key.
	ErrDuplicateIdempotencyKey = &domain.Error{Kind: domain.ErrAlreadyExists, Message: "Order already placed for this idempotency key"}
)

// CreateLine is a validated cart line to be snapshotted into the order.
type CreateLine struct {
	CartLineID     string
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPriceCents int64
}

type CreateInput struct {
	UserID           string
	CartID           string
	OrderNumber      string
	ShippingAddress  string
	OrderNote        string
	PaymentMethod    string
	IdempotencyKey   *string
	TotalAmountCents int64
	Lines            []CreateLine
}

type ListFilter struct {
	UserID   string
	Status   domain.OrderStatus
	Page     domain.PageRequest
	SortBy   string
	SortDesc bool
}

// Repository persists orders. Create and Cancel are the only operations that move stock.
type Repository interface {
	// Create converts the cart into an order atomically: the cart lines must still match in.Lines,
	// every product is decremented conditionally, and the cart is emptied. Nothing is written on failure.
	Create(ctx context.Context, in CreateInput) (*domain.Order, []domain.OrderLine, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, int, error)
	ListLines(ctx context.Context, orderID string) ([]domain.OrderLine, error)
	CountLines(ctx context.Context, orderID string) (int, error)
	// UpdateStatus overwrites the status of a non-terminal order.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	// Cancel marks a non-terminal order CANCELLED and returns every line's quantity to stock in one transaction.
	Cancel(ctx context.Context, id string) (*domain.Order, error)
}
