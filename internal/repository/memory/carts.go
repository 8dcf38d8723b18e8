package memory

import (
	"context"
	"slices"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/cart"
)

type cartRepo struct{ s *Store }

func (r cartRepo) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.cartByUser[userID]; ok {
		c := r.s.carts[id]
		return &c, nil
	}
	if _, ok := r.s.users[userID]; !ok {
		return nil, domain.ErrNotFound
	}
	now := r.s.now()
	c := domain.Cart{ID: newID(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.s.carts[c.ID] = c
	r.s.cartByUser[userID] = c.ID
	return &c, nil
}

func (r cartRepo) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.cartByUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := r.s.carts[id]
	return &c, nil
}

func (r cartRepo) Recalculate(_ context.Context, cartID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.carts[cartID]; !ok {
		return nil, domain.ErrNotFound
	}
	c := r.s.recalculate(cartID)
	return &c, nil
}

func (r cartRepo) Clear(_ context.Context, cartID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.carts[cartID]; !ok {
		return domain.ErrNotFound
	}
	r.s.clearCart(cartID)
	return nil
}

func (r cartRepo) ListLines(_ context.Context, cartID string) ([]domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lines := make([]domain.CartLine, 0, len(r.s.cartLines[cartID]))
	for _, l := range r.s.cartLines[cartID] {
		if p, ok := r.s.products[l.ProductID]; ok {
			l.Product = &p
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (r cartRepo) GetLine(_ context.Context, cartID, lineID string) (*domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.lineIndex(cartID, lineID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	l := r.s.cartLines[cartID][i]
	return &l, nil
}

func (r cartRepo) AddLine(_ context.Context, in cart.AddLineInput) (*domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.carts[in.CartID]; !ok {
		return nil, domain.ErrNotFound
	}
	lines := r.s.cartLines[in.CartID]
	i := slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.ProductID == in.ProductID })

	qty := in.Quantity
	if i >= 0 {
		qty += lines[i].Quantity
	}
	if qty > in.MaxQuantity {
		return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for total quantity")
	}

	now := r.s.now()
	if i >= 0 {
		l := &lines[i]
		l.Quantity = qty
		l.UnitPriceCents = in.UnitPriceCents
		l.TotalPriceCents = in.UnitPriceCents * int64(qty)
		l.UpdatedAt = now
		out := *l
		return &out, nil
	}
	l := domain.CartLine{
		ID:              newID(),
		CartID:          in.CartID,
		ProductID:       in.ProductID,
		Quantity:        qty,
		UnitPriceCents:  in.UnitPriceCents,
		TotalPriceCents: in.UnitPriceCents * int64(qty),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.s.cartLines[in.CartID] = append(lines, l)
	return &l, nil
}

func (r cartRepo) UpdateLine(_ context.Context, cartID, lineID string, quantity int, unitPriceCents int64) (*domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.lineIndex(cartID, lineID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	l := &r.s.cartLines[cartID][i]
	l.Quantity = quantity
	l.UnitPriceCents = unitPriceCents
	l.TotalPriceCents = unitPriceCents * int64(quantity)
	l.UpdatedAt = r.s.now()
	out := *l
	return &out, nil
}

func (r cartRepo) DeleteLine(_ context.Context, cartID, lineID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.lineIndex(cartID, lineID)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.s.cartLines[cartID] = slices.Delete(r.s.cartLines[cartID], i, i+1)
	return nil
}

func (r cartRepo) DeleteLines(_ context.Context, cartID string, lineIDs []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	before := len(r.s.cartLines[cartID])
	r.s.cartLines[cartID] = slices.DeleteFunc(r.s.cartLines[cartID], func(l domain.CartLine) bool {
		return slices.Contains(lineIDs, l.ID)
	})
	return before - len(r.s.cartLines[cartID]), nil
}

func (s *Store) lineIndex(cartID, lineID string) int {
	return slices.IndexFunc(s.cartLines[cartID], func(l domain.CartLine) bool { return l.ID == lineID })
}

func (s *Store) recalculate(cartID string) domain.Cart {
	c := s.carts[cartID]
	c.TotalPriceCents, c.TotalItems = 0, 0
	for _, l := range s.cartLines[cartID] {
		c.TotalPriceCents += l.TotalPriceCents
		c.TotalItems += l.Quantity
	}
	c.UpdatedAt = s.now()
	s.carts[cartID] = c
	return c
}

func (s *Store) clearCart(cartID string) {
	delete(s.cartLines, cartID)
	c := s.carts[cartID]
	c.TotalPriceCents, c.TotalItems = 0, 0
	c.UpdatedAt = s.now()
	s.carts[cartID] = c
}
