package payment

import (
	"context"
	"math/rand/v2"

	"ecommerce-backend/internal/domain"
)

// Card carries the details submitted with a card payment. They are passed to the
// gateway only and never stored.
type Card struct {
	Number     string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	HolderName string `json:"cardHolderName"`
}

// Gateway authorizes a charge. Approved=false is a declined payment, not an error.
type Gateway interface {
	Charge(ctx context.Context, p domain.Payment, card Card) (approved bool, err error)
}

// SimulatedGateway approves a configurable share of charges at random.
type SimulatedGateway struct {
	SuccessRate float64
	// Float64 returns a value in [0,1); defaults to math/rand/v2.
	Float64 func() float64
}

func NewSimulatedGateway(successRate float64) *SimulatedGateway {
	return &SimulatedGateway{SuccessRate: successRate, Float64: rand.Float64}
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ domain.Payment, _ Card) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	roll := rand.Float64
	if g.Float64 != nil {
		roll = g.Float64
	}
	return roll() < g.SuccessRate, nil
}
