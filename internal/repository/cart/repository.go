package cart

import (
	"context"

	"ecommerce-backend/internal/domain"
)

// AddLineInput adds Quantity units of a product to a cart, merging with an existing line.
type AddLineInput struct {
	CartID         string
	ProductID      string
	Quantity       int
	UnitPriceCents int64
	// MaxQuantity caps the combined quantity of the line; the add is refused with
	// domain.ErrInsufficientStock when the merged quantity would exceed it.
	MaxQuantity int
}

// Repository stores carts and their lines. Line mutations never touch the cart totals;
// callers follow every mutation with Recalculate.
type Repository interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Recalculate(ctx context.Context, cartID string) (*domain.Cart, error)
	// Clear deletes every line and zeroes the totals in one transaction.
	Clear(ctx context.Context, cartID string) error

	// ListLines returns the lines oldest first. Line.Product is nil when the product no longer exists.
	ListLines(ctx context.Context, cartID string) ([]domain.CartLine, error)
	GetLine(ctx context.Context, cartID, lineID string) (*domain.CartLine, error)
	AddLine(ctx context.Context, in AddLineInput) (*domain.CartLine, error)
	UpdateLine(ctx context.Context, cartID, lineID string, quantity int, unitPriceCents int64) (*domain.CartLine, error)
	DeleteLine(ctx context.Context, cartID, lineID string) error
	DeleteLines(ctx context.Context, cartID string, lineIDs []string) (int, error)
}
