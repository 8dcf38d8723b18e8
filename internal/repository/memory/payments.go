package memory

import (
	"context"
	"slices"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/payment"
)

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p domain.Payment) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[p.OrderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, existing := range r.s.payments {
		if existing.OrderID == p.OrderID {
			return nil, payment.ErrDuplicate
		}
	}
	now := r.s.now()
	p.ID = newID()
	p.Status = domain.PaymentPending
	p.TransactionID = nil
	p.PaymentDate = nil
	p.RefundAmountCents = nil
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.payments[p.ID] = p

	paymentID := p.ID
	o.PaymentID = &paymentID
	o.UpdatedAt = now
	r.s.orders[o.ID] = o
	return &p, nil
}

func (r paymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r paymentRepo) GetByOrder(_ context.Context, orderID string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r paymentRepo) Transition(_ context.Context, t payment.Transition) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[t.PaymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if len(t.From) > 0 && !slices.Contains(t.From, p.Status) {
		return nil, domain.Errorf(domain.ErrInvalidState, "Payment is %s, cannot move to %s", p.Status, t.To)
	}
	if t.TransactionID != nil {
		for _, other := range r.s.payments {
			if other.ID != p.ID && other.TransactionID != nil && *other.TransactionID == *t.TransactionID {
				return nil, domain.ErrAlreadyExists
			}
		}
		id := *t.TransactionID
		p.TransactionID = &id
	}

	now := r.s.now()
	p.Status = t.To
	if t.GatewayResponse != nil {
		p.GatewayResponse = *t.GatewayResponse
	}
	if t.RefundAmountCents != nil {
		amount := *t.RefundAmountCents
		p.RefundAmountCents = &amount
	}
	if t.To == domain.PaymentCompleted && p.PaymentDate == nil {
		p.PaymentDate = &now
	}
	p.UpdatedAt = now
	r.s.payments[p.ID] = p

	if t.Order != nil {
		if o, ok := r.s.orders[p.OrderID]; ok && slices.Contains(t.Order.From, o.Status) {
			o.Status = t.Order.To
			o.UpdatedAt = now
			r.s.orders[o.ID] = o
		}
	}
	return &p, nil
}
