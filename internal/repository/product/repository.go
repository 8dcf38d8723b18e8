package product

import (
	"context"

	"ecommerce-backend/internal/domain"
)

// ListFilter narrows a product listing. Zero values mean "no constraint".
type ListFilter struct {
	Page          domain.PageRequest
	Status        domain.ProductStatus
	CategoryID    string
	MinPriceCents *int64
	MaxPriceCents *int64
	// Query matches name or description, case-insensitively.
	Query    string
	SortBy   string
	SortDesc bool
}

// SortColumns maps the accepted ListFilter.SortBy values to columns.
var SortColumns = map[string]string{
	"createdAt":     "p.created_at",
	"price":         "p.price_cents",
	"name":          "p.name",
	"rating":        "p.rating",
	"stockQuantity": "p.stock_quantity",
}

// Repository is the product ledger. Stock only moves through IncrementStock and DecrementStock.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	// Delete removes the product together with every cart line that references it,
	// recalculating the affected carts. It returns the number of cart lines removed.
	Delete(ctx context.Context, id string) (int, error)
	IncrementStock(ctx context.Context, id string, qty int) (*domain.Product, error)
	// DecrementStock fails with domain.ErrInsufficientStock instead of going below zero.
	DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, error)
}
