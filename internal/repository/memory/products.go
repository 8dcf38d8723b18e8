package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/product"
)

type productRepo struct{ s *Store }

func (r productRepo) List(_ context.Context, f product.ListFilter) ([]domain.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(f.Query))
	var matched []domain.Product
	for _, p := range r.s.products {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
			continue
		}
		if f.MinPriceCents != nil && p.PriceCents < *f.MinPriceCents {
			continue
		}
		if f.MaxPriceCents != nil && p.PriceCents > *f.MaxPriceCents {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) && !strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		matched = append(matched, r.s.withCategory(p))
	}

	slices.SortFunc(matched, func(a, b domain.Product) int {
		var c int
		switch f.SortBy {
		case "price":
			c = cmp.Compare(a.PriceCents, b.PriceCents)
		case "name":
			c = strings.Compare(a.Name, b.Name)
		case "rating":
			c = cmp.Compare(a.Rating, b.Rating)
		case "stockQuantity":
			c = cmp.Compare(a.StockQuantity, b.StockQuantity)
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

func (r productRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = r.s.withCategory(p)
	return &p, nil
}

func (r productRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkCategory(p.CategoryID); err != nil {
		return nil, err
	}
	if p.StockQuantity < 0 {
		return nil, domain.ErrInsufficientStock
	}
	p.ID = newID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	p.Category = nil
	r.s.products[p.ID] = p
	p = r.s.withCategory(p)
	return &p, nil
}

func (r productRepo) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.products[p.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := r.s.checkCategory(p.CategoryID); err != nil {
		return nil, err
	}
	// Stock is not part of a product update.
	p.StockQuantity = existing.StockQuantity
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.s.now()
	p.Category = nil
	r.s.products[p.ID] = p
	p = r.s.withCategory(p)
	return &p, nil
}

func (r productRepo) Delete(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return 0, domain.ErrNotFound
	}
	delete(r.s.products, id)

	removed := 0
	for cartID, lines := range r.s.cartLines {
		kept := lines[:0]
		for _, l := range lines {
			if l.ProductID == id {
				removed++
				continue
			}
			kept = append(kept, l)
		}
		if len(kept) != len(lines) {
			r.s.cartLines[cartID] = kept
			r.s.recalculate(cartID)
		}
	}
	return removed, nil
}

func (r productRepo) IncrementStock(_ context.Context, id string, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Quantity must be greater than 0")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.StockQuantity += qty
	p.UpdatedAt = r.s.now()
	r.s.products[id] = p
	p = r.s.withCategory(p)
	return &p, nil
}

func (r productRepo) DecrementStock(_ context.Context, id string, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Quantity must be greater than 0")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.StockQuantity < qty {
		return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for %s", p.Name)
	}
	p.StockQuantity -= qty
	p.UpdatedAt = r.s.now()
	r.s.products[id] = p
	p = r.s.withCategory(p)
	return &p, nil
}

func (s *Store) withCategory(p domain.Product) domain.Product {
	p.Category = nil
	if p.CategoryID != nil {
		if c, ok := s.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	return p
}

func (s *Store) checkCategory(id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := s.categories[*id]; !ok {
		return domain.ErrNotFound
	}
	return nil
}
