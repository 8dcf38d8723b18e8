package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/order"
)

type orderRepo struct{ s *Store }

func (r orderRepo) Create(_ context.Context, in order.CreateInput) (*domain.Order, []domain.OrderLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.carts[in.CartID]
	if !ok || c.UserID != in.UserID {
		return nil, nil, domain.ErrNotFound
	}
	if err := r.verifyCartLines(in.CartID, in.Lines); err != nil {
		return nil, nil, err
	}
	for _, o := range r.s.orders {
		if o.OrderNumber == in.OrderNumber {
			return nil, nil, order.ErrDuplicateNumber
		}
		if in.IdempotencyKey != nil && o.UserID == in.UserID && o.IdempotencyKey != nil && *o.IdempotencyKey == *in.IdempotencyKey {
			return nil, nil, order.ErrDuplicateIdempotencyKey
		}
	}

	// Check every line before touching stock so a refusal leaves nothing behind.
	need := map[string]int{}
	for _, l := range in.Lines {
		need[l.ProductID] += l.Quantity
	}
	for _, l := range in.Lines {
		p, ok := r.s.products[l.ProductID]
		if !ok || p.Status != domain.ProductActive {
			return nil, nil, domain.Errorf(domain.ErrInvalidState, "Product %s is no longer available", l.ProductName)
		}
		if p.StockQuantity < need[l.ProductID] {
			return nil, nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for %s", l.ProductName)
		}
	}

	now := r.s.now()
	o := domain.Order{
		ID:               newID(),
		UserID:           in.UserID,
		OrderNumber:      in.OrderNumber,
		TotalAmountCents: in.TotalAmountCents,
		Status:           domain.OrderPending,
		ShippingAddress:  in.ShippingAddress,
		OrderNote:        in.OrderNote,
		PaymentMethod:    in.PaymentMethod,
		IdempotencyKey:   in.IdempotencyKey,
		OrderDate:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	lines := make([]domain.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, domain.OrderLine{
			ID:              newID(),
			OrderID:         o.ID,
			ProductID:       l.ProductID,
			ProductName:     l.ProductName,
			Quantity:        l.Quantity,
			UnitPriceCents:  l.UnitPriceCents,
			TotalPriceCents: l.UnitPriceCents * int64(l.Quantity),
			CreatedAt:       now,
		})
		p := r.s.products[l.ProductID]
		p.StockQuantity -= l.Quantity
		p.UpdatedAt = now
		r.s.products[l.ProductID] = p
	}
	r.s.orders[o.ID] = o
	r.s.orderLines[o.ID] = lines
	r.s.clearCart(in.CartID)

	return &o, slices.Clone(lines), nil
}

func (r orderRepo) verifyCartLines(cartID string, want []order.CreateLine) error {
	current := r.s.cartLines[cartID]
	if len(current) == 0 {
		return domain.Errorf(domain.ErrInvalidState, "Cart is empty")
	}
	changed := domain.Errorf(domain.ErrInvalidState, "Cart changed during checkout, please review it and try again")
	if len(current) != len(want) {
		return changed
	}
	for _, w := range want {
		i := slices.IndexFunc(current, func(l domain.CartLine) bool { return l.ID == w.CartLineID })
		if i < 0 {
			return changed
		}
		l := current[i]
		if l.ProductID != w.ProductID || l.Quantity != w.Quantity || l.UnitPriceCents != w.UnitPriceCents {
			return changed
		}
	}
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r orderRepo) GetByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r orderRepo) List(_ context.Context, f order.ListFilter) ([]domain.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []domain.Order
	for _, o := range r.s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		matched = append(matched, o)
	}
	slices.SortFunc(matched, func(a, b domain.Order) int {
		var c int
		switch f.SortBy {
		case "totalAmount":
			c = cmp.Compare(a.TotalAmountCents, b.TotalAmountCents)
		case "orderNumber":
			c = strings.Compare(a.OrderNumber, b.OrderNumber)
		case "status":
			c = strings.Compare(string(a.Status), string(b.Status))
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if f.SortDesc {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		return c
	})
	return page(matched, f.Page), len(matched), nil
}

func (r orderRepo) ListLines(_ context.Context, orderID string) ([]domain.OrderLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lines := slices.Clone(r.s.orderLines[orderID])
	if lines == nil {
		lines = []domain.OrderLine{}
	}
	return lines, nil
}

func (r orderRepo) CountLines(_ context.Context, orderID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.orderLines[orderID]), nil
}

func (r orderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if o.Status.Terminal() {
		return nil, domain.Errorf(domain.ErrInvalidState, "Cannot update status of shipped or cancelled order")
	}
	o.Status = status
	o.UpdatedAt = r.s.now()
	r.s.orders[id] = o
	return &o, nil
}

func (r orderRepo) Cancel(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	switch o.Status {
	case domain.OrderShipped:
		return nil, domain.Errorf(domain.ErrInvalidState, "Cannot cancel order that has been shipped")
	case domain.OrderCancelled:
		return nil, domain.Errorf(domain.ErrInvalidState, "Order is already cancelled")
	}

	now := r.s.now()
	for _, l := range r.s.orderLines[id] {
		p, ok := r.s.products[l.ProductID]
		if !ok {
			continue
		}
		p.StockQuantity += l.Quantity
		p.UpdatedAt = now
		r.s.products[l.ProductID] = p
	}
	o.Status = domain.OrderCancelled
	o.UpdatedAt = now
	r.s.orders[id] = o
	return &o, nil
}
