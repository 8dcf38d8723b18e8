package domain

import "time"

type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductInactive ProductStatus = "INACTIVE"
)

// Valid reports whether s is one of the known product statuses.
func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductInactive
}

type Product struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	PriceCents    int64         `json:"priceCents"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	CategoryID    *string       `json:"categoryId,omitempty"`
	Category      *Category     `json:"category,omitempty"`
	StockQuantity int           `json:"stockQuantity"`
	Color         string        `json:"color,omitempty"`
	Size          string        `json:"size,omitempty"`
	Status        ProductStatus `json:"status"`
	Rating        float64       `json:"rating"`
	ReviewCount   int           `json:"reviewCount"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Available reports whether the product can be sold in the given quantity right now.
func (p Product) Available(quantity int) bool {
	return p.Status == ProductActive && p.StockQuantity >= quantity
}
