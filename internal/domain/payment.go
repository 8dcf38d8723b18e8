package domain

import "time"

type PaymentMethod string

const (
	MethodCreditCard     PaymentMethod = "CREDIT_CARD"
	MethodDebitCard      PaymentMethod = "DEBIT_CARD"
	MethodPayPal         PaymentMethod = "PAYPAL"
	MethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	MethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPayPal, MethodBankTransfer, MethodCashOnDelivery:
		return true
	}
	return false
}

// RequiresCard reports whether processing needs card details.
func (m PaymentMethod) RequiresCard() bool {
	return m == MethodCreditCard || m == MethodDebitCard
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

var supportedCurrencies = map[string]bool{"USD": true, "VND": true, "EUR": true}

// SupportedCurrency reports whether payments may be taken in the given ISO code.
func SupportedCurrency(code string) bool {
	return supportedCurrencies[code]
}

type Payment struct {
	ID                string        `json:"id"`
	OrderID           string        `json:"orderId"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	AmountCents       int64         `json:"amountCents"`
	Currency          string        `json:"currency"`
	Status            PaymentStatus `json:"status"`
	TransactionID     *string       `json:"transactionId,omitempty"`
	GatewayResponse   string        `json:"gatewayResponse,omitempty"`
	PaymentDate       *time.Time    `json:"paymentDate,omitempty"`
	RefundAmountCents *int64        `json:"refundAmountCents,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}
