package domain

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// ParseOrderStatus accepts only the statuses a client may set directly.
// CONFIRMED is reachable through payment completion alone.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderProcessing, OrderShipped, OrderCancelled:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderShipped || s == OrderCancelled
}

// TerminalOrderStatuses lists the statuses that end an order's lifecycle.
var TerminalOrderStatuses = []OrderStatus{OrderShipped, OrderCancelled}

type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId"`
	OrderNumber      string      `json:"orderNumber"`
	TotalAmountCents int64       `json:"totalAmountCents"`
	Status           OrderStatus `json:"status"`
	ShippingAddress  string      `json:"shippingAddress"`
	OrderNote        string      `json:"orderNote,omitempty"`
	PaymentMethod    string      `json:"paymentMethod,omitempty"`
	PaymentID        *string     `json:"paymentId,omitempty"`
	IdempotencyKey   *string     `json:"-"`
	OrderDate        time.Time   `json:"orderDate"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// OrderLine is an immutable snapshot taken when the order was created.
type OrderLine struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"orderId"`
	ProductID       string    `json:"productId"`
	ProductName     string    `json:"productName"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unitPriceCents"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	CreatedAt       time.Time `json:"createdAt"`
}

// OrderSummary is an order enriched for listings.
type OrderSummary struct {
	Order
	ItemCount int    `json:"itemCount"`
	Buyer     string `json:"buyer"`
}
