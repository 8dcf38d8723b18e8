package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/events"
	paymentrepo "ecommerce-backend/internal/repository/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgProcessed = "Payment processed successfully"
	msgFailed    = "Payment processing failed"
)

type paymentRepo interface {
	Create(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	Transition(ctx context.Context, t paymentrepo.Transition) (*domain.Payment, error)
}

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type Service struct {
	repo            paymentRepo
	orders          orderRepo
	gateway         Gateway
	notifier        *events.Notifier
	defaultCurrency string
	logger          *log.Logger

	finalAttempts int
	finalDelay    time.Duration
}

func New(repo paymentRepo, orders orderRepo, gateway Gateway, notifier *events.Notifier, defaultCurrency string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Service{
		repo:            repo,
		orders:          orders,
		gateway:         gateway,
		notifier:        notifier,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		logger:          logger,
		finalAttempts:   5,
		finalDelay:      100 * time.Millisecond,
	}
}

// CreateInput takes the amount either in major units (amount: 19.99) or in minor units
// (amountCents: 1999). When both are sent they must agree.
type CreateInput struct {
	OrderID       string           `json:"orderId"`
	PaymentMethod string           `json:"paymentMethod"`
	Amount        *decimal.Decimal `json:"amount"`
	AmountCents   *int64           `json:"amountCents"`
	Currency      string           `json:"currency"`
}

// Create opens the single PENDING payment for an order. The amount, when given, must
// equal the order total exactly.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Payment, error) {
	if in.OrderID == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Order ID is required")
	}
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	if !method.Valid() {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid payment method")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !domain.SupportedCurrency(currency) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Unsupported currency %s", currency)
	}

	o, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, domain.NotFound(err, "Order")
	}
	requested, err := resolveCents("amount", in.Amount, in.AmountCents)
	if err != nil {
		return nil, err
	}
	amount := o.TotalAmountCents
	if requested != nil && *requested != o.TotalAmountCents {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Payment amount does not match order total")
	}

	p, err := s.repo.Create(ctx, domain.Payment{
		OrderID:       o.ID,
		PaymentMethod: method,
		AmountCents:   amount,
		Currency:      currency,
	})
	if err != nil {
		return nil, domain.NotFound(err, "Order")
	}
	s.logger.Printf("payment service: created payment_id=%s order_id=%s amount_cents=%d currency=%s", p.ID, p.OrderID, p.AmountCents, p.Currency)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Payment")
	}
	return p, nil
}

func (s *Service) GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	p, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, domain.NotFound(err, "Payment for this order")
	}
	return p, nil
}

type UpdateStatusInput struct {
	Status          string  `json:"status"`
	TransactionID   *string `json:"transactionId"`
	GatewayResponse *string `json:"gatewayResponse"`
}

// UpdateStatus is the manual override used by operators and gateway callbacks. Any
// status may follow any other; COMPLETED also confirms a PENDING order.
func (s *Service) UpdateStatus(ctx context.Context, id string, in UpdateStatusInput) (*domain.Payment, error) {
	status := domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !status.Valid() {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid payment status")
	}
	t := paymentrepo.Transition{
		PaymentID:       id,
		To:              status,
		TransactionID:   nonEmpty(in.TransactionID),
		GatewayResponse: nonEmpty(in.GatewayResponse),
	}
	if status == domain.PaymentCompleted {
		t.Order = confirmOrder()
	}
	p, err := s.repo.Transition(ctx, t)
	if err != nil {
		return nil, s.transitionErr(err)
	}
	s.logger.Printf("payment service: status payment_id=%s status=%s", p.ID, p.Status)
	s.notify(ctx, p)
	return p, nil
}

// Process runs a PENDING payment through the gateway. The PROCESSING write is committed
// before the gateway is called, and the terminal write always follows it even if the
// caller goes away, so a payment is never left PROCESSING.
func (s *Service) Process(ctx context.Context, id string, card Card) (*domain.Payment, string, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", domain.NotFound(err, "Payment")
	}
	if p.Status != domain.PaymentPending {
		return nil, "", domain.Errorf(domain.ErrInvalidState, "Payment is not in pending status")
	}
	if p.PaymentMethod.RequiresCard() {
		if err := validateCard(card); err != nil {
			return nil, "", err
		}
	}

	p, err = s.repo.Transition(ctx, paymentrepo.Transition{
		PaymentID: id,
		From:      []domain.PaymentStatus{domain.PaymentPending},
		To:        domain.PaymentProcessing,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return nil, "", domain.Errorf(domain.ErrInvalidState, "Payment is not in pending status")
		}
		return nil, "", s.transitionErr(err)
	}

	ctx = context.WithoutCancel(ctx)
	approved, gerr := s.gateway.Charge(ctx, *p, card)
	if gerr != nil {
		s.logger.Printf("payment service: gateway error payment_id=%s error=%v", id, gerr)
		approved = false
	}

	final := paymentrepo.Transition{
		PaymentID: id,
		From:      []domain.PaymentStatus{domain.PaymentProcessing},
	}
	msg := msgFailed
	if approved {
		txn := "TXN-" + uuid.NewString()
		msg = msgProcessed
		final.To = domain.PaymentCompleted
		final.TransactionID = &txn
		final.Order = confirmOrder()
	} else {
		final.To = domain.PaymentFailed
	}
	final.GatewayResponse = &msg

	p, err = s.finish(ctx, final)
	if err != nil {
		return nil, "", s.transitionErr(err)
	}
	s.logger.Printf("payment service: processed payment_id=%s status=%s", p.ID, p.Status)
	s.notify(ctx, p)
	return p, msg, nil
}

// finish writes the terminal status of a processed payment, retrying storage failures with a
// linear backoff. A refused compare-and-set on a retry means an earlier attempt committed
// without reporting it, so the stored payment is returned instead.
func (s *Service) finish(ctx context.Context, t paymentrepo.Transition) (*domain.Payment, error) {
	var err error
	for attempt := 1; attempt <= s.finalAttempts; attempt++ {
		var p *domain.Payment
		p, err = s.repo.Transition(ctx, t)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, domain.ErrInvalidState) && attempt > 1 {
			if stored, gerr := s.repo.GetByID(ctx, t.PaymentID); gerr == nil && stored.Status == t.To {
				return stored, nil
			}
		}
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
			break
		}
		s.logger.Printf("payment service: terminal write payment_id=%s to=%s attempt=%d error=%v", t.PaymentID, t.To, attempt, err)
		if attempt < s.finalAttempts {
			time.Sleep(time.Duration(attempt) * s.finalDelay)
		}
	}
	s.logger.Printf("payment service: payment_id=%s left PROCESSING, terminal write to=%s failed error=%v", t.PaymentID, t.To, err)
	return nil, err
}

// RefundInput takes the same two amount forms as CreateInput. No amount means a full refund.
type RefundInput struct {
	Amount      *decimal.Decimal `json:"refundAmount"`
	AmountCents *int64           `json:"refundAmountCents"`
	Reason      string           `json:"reason"`
}

// Refund moves a COMPLETED payment to REFUNDED. A full refund cancels the order when it
// has not shipped. Stock is not returned here; that only happens through order cancellation.
func (s *Service) Refund(ctx context.Context, id string, in RefundInput) (*domain.Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Payment")
	}
	if p.Status != domain.PaymentCompleted {
		return nil, domain.Errorf(domain.ErrInvalidState, "Can only refund completed payments")
	}
	requested, err := resolveCents("refundAmount", in.Amount, in.AmountCents)
	if err != nil {
		return nil, err
	}
	amount := p.AmountCents
	if requested != nil {
		amount = *requested
	}
	if amount <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Refund amount must be greater than 0")
	}
	if amount > p.AmountCents {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Refund amount cannot exceed payment amount")
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "No reason provided"
	}
	msg := fmt.Sprintf("Refunded %s %s. Reason: %s", FormatCents(amount), p.Currency, reason)
	t := paymentrepo.Transition{
		PaymentID:         id,
		From:              []domain.PaymentStatus{domain.PaymentCompleted},
		To:                domain.PaymentRefunded,
		GatewayResponse:   &msg,
		RefundAmountCents: &amount,
	}
	if amount == p.AmountCents {
		t.Order = &paymentrepo.OrderCascade{
			From: []domain.OrderStatus{domain.OrderPending, domain.OrderConfirmed, domain.OrderProcessing},
			To:   domain.OrderCancelled,
		}
	}
	p, err = s.repo.Transition(ctx, t)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return nil, domain.Errorf(domain.ErrInvalidState, "Can only refund completed payments")
		}
		return nil, s.transitionErr(err)
	}
	s.logger.Printf("payment service: refunded payment_id=%s amount_cents=%d full=%t", p.ID, amount, amount == p.AmountCents)
	s.notify(ctx, p)
	return p, nil
}

// resolveCents merges the major-unit and minor-unit forms of one amount field.
func resolveCents(field string, amount *decimal.Decimal, cents *int64) (*int64, error) {
	if amount == nil {
		return cents, nil
	}
	c, err := domain.Cents(*amount)
	if err != nil {
		return nil, err
	}
	if cents != nil && *cents != c {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "%s and %sCents disagree", field, field)
	}
	return &c, nil
}

// FormatCents renders an amount in minor units as a decimal string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (s *Service) notify(ctx context.Context, p *domain.Payment) {
	var typ events.Type
	switch p.Status {
	case domain.PaymentCompleted:
		typ = events.PaymentCompleted
	case domain.PaymentFailed:
		typ = events.PaymentFailed
	case domain.PaymentRefunded:
		typ = events.PaymentRefunded
	default:
		return
	}
	s.notifier.Notify(ctx, p.ID, typ, p)
}

func (s *Service) transitionErr(err error) error {
	if errors.Is(err, domain.ErrAlreadyExists) {
		return domain.Errorf(domain.ErrAlreadyExists, "Transaction ID already in use")
	}
	return domain.NotFound(err, "Payment")
}

func confirmOrder() *paymentrepo.OrderCascade {
	return &paymentrepo.OrderCascade{From: []domain.OrderStatus{domain.OrderPending}, To: domain.OrderConfirmed}
}

func validateCard(c Card) error {
	if strings.TrimSpace(c.Number) == "" || strings.TrimSpace(c.ExpiryDate) == "" ||
		strings.TrimSpace(c.CVV) == "" || strings.TrimSpace(c.HolderName) == "" {
		return domain.Errorf(domain.ErrInvalidArgument, "Card number, expiry date, CVV and card holder name are required")
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
