package domain

import "time"

// Cart is the per-user aggregate. Totals are derived from its lines and never set directly.
type Cart struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	TotalItems      int       `json:"totalItems"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CartLine struct {
	ID              string    `json:"id"`
	CartID          string    `json:"cartId"`
	ProductID       string    `json:"productId"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unitPriceCents"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	// Product is nil when the referenced product no longer exists.
	Product *Product `json:"product,omitempty"`
}
