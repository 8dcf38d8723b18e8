package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/events"
	orderrepo "ecommerce-backend/internal/repository/order"
	"golang.org/x/sync/errgroup"
)

const (
	numberAttempts  = 3
	enrichWorkers   = 8
	numberAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberSuffixLen = 5
)

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateInput) (*domain.Order, []domain.OrderLine, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	List(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error)
	ListLines(ctx context.Context, orderID string) ([]domain.OrderLine, error)
	CountLines(ctx context.Context, orderID string) (int, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
}

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	ListLines(ctx context.Context, cartID string) ([]domain.CartLine, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type paymentRepo interface {
	GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
}

type Service struct {
	orders    orderRepo
	carts     cartRepo
	users     userRepo
	payments  paymentRepo
	notifier  *events.Notifier
	logger    *log.Logger
	newNumber func() string
}

func New(orders orderRepo, carts cartRepo, users userRepo, payments paymentRepo, notifier *events.Notifier, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		orders:    orders,
		carts:     carts,
		users:     users,
		payments:  payments,
		notifier:  notifier,
		logger:    logger,
		newNumber: NewOrderNumber,
	}
}

// NewOrderNumber returns "ORD" + unix millis + a random 5-character base36 suffix.
func NewOrderNumber() string {
	var b strings.Builder
	b.WriteString("ORD")
	b.WriteString(fmt.Sprint(time.Now().UnixMilli()))
	for range numberSuffixLen {
		b.WriteByte(numberAlphabet[rand.IntN(len(numberAlphabet))])
	}
	return b.String()
}

type CreateInput struct {
	UserID          string `json:"userId"`
	ShippingAddress string `json:"shippingAddress"`
	OrderNote       string `json:"orderNote"`
	PaymentMethod   string `json:"paymentMethod"`
	// IdempotencyKey makes retries of the same checkout return the first order.
	IdempotencyKey string `json:"-"`
}

// Create converts the user's cart into a PENDING order. The boolean is false when an
// earlier order with the same idempotency key was returned instead of placing a new one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, bool, error) {
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.OrderNote = strings.TrimSpace(in.OrderNote)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if in.UserID == "" {
		return nil, false, domain.Errorf(domain.ErrInvalidArgument, "User ID is required")
	}
	if in.ShippingAddress == "" {
		return nil, false, domain.Errorf(domain.ErrInvalidArgument, "Shipping address is required")
	}
	if in.PaymentMethod != "" && !domain.PaymentMethod(in.PaymentMethod).Valid() {
		return nil, false, domain.Errorf(domain.ErrInvalidArgument, "Invalid payment method")
	}

	var key *string
	if in.IdempotencyKey != "" {
		key = &in.IdempotencyKey
		if existing, err := s.orders.GetByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey); err == nil {
			s.logger.Printf("order service: replay idempotency_key=%s order_id=%s", in.IdempotencyKey, existing.ID)
			return existing, false, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, false, domain.NotFound(err, "User")
	}
	cart, err := s.carts.GetByUser(ctx, in.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, domain.Errorf(domain.ErrInvalidState, "Cart is empty")
	}
	if err != nil {
		return nil, false, err
	}
	cartLines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, false, err
	}
	if len(cartLines) == 0 {
		return nil, false, domain.Errorf(domain.ErrInvalidState, "No items in cart")
	}

	lines, total, err := snapshotLines(cartLines)
	if err != nil {
		return nil, false, err
	}

	for attempt := 1; ; attempt++ {
		order, created, err := s.orders.Create(ctx, orderrepo.CreateInput{
			UserID:           in.UserID,
			CartID:           cart.ID,
			OrderNumber:      s.newNumber(),
			ShippingAddress:  in.ShippingAddress,
			OrderNote:        in.OrderNote,
			PaymentMethod:    in.PaymentMethod,
			IdempotencyKey:   key,
			TotalAmountCents: total,
			Lines:            lines,
		})
		switch {
		case err == nil:
			s.logger.Printf("order service: created order_id=%s number=%s total_cents=%d lines=%d", order.ID, order.OrderNumber, order.TotalAmountCents, len(created))
			s.notifier.Notify(ctx, order.ID, events.OrderCreated, map[string]any{"order": order, "items": created})
			return order, true, nil
		case errors.Is(err, orderrepo.ErrDuplicateNumber) && attempt < numberAttempts:
			s.logger.Printf("order service: order number collision attempt=%d", attempt)
			continue
		case errors.Is(err, orderrepo.ErrDuplicateIdempotencyKey):
			// A concurrent request with the same key won the race.
			existing, gerr := s.orders.GetByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		default:
			return nil, false, err
		}
	}
}

// snapshotLines validates every cart line against its product at this instant and totals
// the cart-line unit prices. Any failing line aborts the whole order.
func snapshotLines(cartLines []domain.CartLine) ([]orderrepo.CreateLine, int64, error) {
	lines := make([]orderrepo.CreateLine, 0, len(cartLines))
	var total int64
	for _, cl := range cartLines {
		p := cl.Product
		if p == nil {
			return nil, 0, domain.Errorf(domain.ErrInvalidState, "Product %s is no longer available", cl.ProductID)
		}
		if p.Status != domain.ProductActive {
			return nil, 0, domain.Errorf(domain.ErrInvalidState, "Product %s is no longer available", p.Name)
		}
		if p.StockQuantity < cl.Quantity {
			return nil, 0, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for %s", p.Name)
		}
		total += cl.UnitPriceCents * int64(cl.Quantity)
		lines = append(lines, orderrepo.CreateLine{
			CartLineID:     cl.ID,
			ProductID:      cl.ProductID,
			ProductName:    p.Name,
			Quantity:       cl.Quantity,
			UnitPriceCents: cl.UnitPriceCents,
		})
	}
	return lines, total, nil
}

// Detail is an order together with its payment, when one exists.
type Detail struct {
	domain.Order
	Payment *domain.Payment `json:"payment,omitempty"`
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Order")
	}
	d := &Detail{Order: *o}
	if o.PaymentID != nil && s.payments != nil {
		p, err := s.payments.GetByOrder(ctx, o.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		d.Payment = p
	}
	return d, nil
}

type Items struct {
	Order domain.Order       `json:"order"`
	Items []domain.OrderLine `json:"items"`
}

func (s *Service) Items(ctx context.Context, id string) (*Items, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Order")
	}
	lines, err := s.orders.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Items{Order: *o, Items: lines}, nil
}

type ListInput struct {
	Page      domain.PageRequest
	Status    string
	SortBy    string
	SortOrder string
}

type ListResult struct {
	Orders     []domain.OrderSummary `json:"orders"`
	Pagination domain.Pagination     `json:"pagination"`
}

// List returns every order, newest first unless SortBy/SortOrder say otherwise.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	return s.list(ctx, "", in)
}

// ListByUser returns one user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, in ListInput) (*ListResult, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, domain.NotFound(err, "User")
	}
	in.SortBy, in.SortOrder = "", ""
	return s.list(ctx, userID, in)
}

func (s *Service) list(ctx context.Context, userID string, in ListInput) (*ListResult, error) {
	page := in.Page.Normalize()
	f := orderrepo.ListFilter{
		UserID:   userID,
		Page:     page,
		SortBy:   in.SortBy,
		SortDesc: !strings.EqualFold(in.SortOrder, "asc"),
	}
	if in.Status != "" {
		st := domain.OrderStatus(strings.ToUpper(in.Status))
		if _, ok := domain.ParseOrderStatus(string(st)); !ok && st != domain.OrderConfirmed {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid order status")
		}
		f.Status = st
	}

	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.OrderSummary, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichWorkers)
	for i, o := range orders {
		g.Go(func() error {
			count, err := s.orders.CountLines(gctx, o.ID)
			if err != nil {
				return err
			}
			var buyer string
			u, err := s.users.GetByID(gctx, o.UserID)
			switch {
			case err == nil:
				buyer = u.Email
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			summaries[i] = domain.OrderSummary{Order: o, ItemCount: count, Buyer: buyer}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ListResult{
		Orders:     summaries,
		Pagination: domain.NewPagination(page, len(summaries), total),
	}, nil
}

// UpdateStatus sets one of the client-settable statuses. CANCELLED goes through Cancel
// so the stock is returned.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	st, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid order status")
	}
	if st == domain.OrderCancelled {
		current, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return nil, domain.NotFound(err, "Order")
		}
		if current.Status.Terminal() {
			return nil, domain.Errorf(domain.ErrInvalidState, "Cannot update status of shipped or cancelled order")
		}
		return s.Cancel(ctx, id)
	}

	o, err := s.orders.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, domain.NotFound(err, "Order")
	}
	s.logger.Printf("order service: status order_id=%s status=%s", o.ID, o.Status)
	s.notifier.Notify(ctx, o.ID, events.OrderStatusChanged, o)
	return o, nil
}

// Cancel marks the order CANCELLED and returns its quantities to stock.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orders.Cancel(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Order")
	}
	s.logger.Printf("order service: cancelled order_id=%s", o.ID)
	s.notifier.Notify(ctx, o.ID, events.OrderCancelled, o)
	return o, nil
}
