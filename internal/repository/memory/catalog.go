package memory

import (
	"context"
	"slices"
	"strings"

	"ecommerce-backend/internal/domain"
)

type categoryRepo struct{ s *Store }

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r categoryRepo) Create(_ context.Context, c domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(c.Name, "") {
		return nil, domain.ErrAlreadyExists
	}
	c.ID = newID()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.categories[c.ID] = c
	return &c, nil
}

func (r categoryRepo) Update(_ context.Context, c domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.categories[c.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.nameTaken(c.Name, c.ID) {
		return nil, domain.ErrAlreadyExists
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.categories[c.ID] = c
	return &c, nil
}

func (r categoryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.categories, id)
	for pid, p := range r.s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			r.s.products[pid] = p
		}
	}
	return nil
}

func (r categoryRepo) nameTaken(name, exceptID string) bool {
	for _, c := range r.s.categories {
		if c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

type userRepo struct{ s *Store }

func (r userRepo) List(_ context.Context, p domain.PageRequest) ([]domain.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, u)
	}
	slices.SortFunc(all, func(a, b domain.User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return page(all, p), len(all), nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r userRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	u.ID = newID()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = u
	return &u, nil
}

func (r userRepo) Update(_ context.Context, u domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[u.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	existing.Name = u.Name
	existing.Phone = u.Phone
	existing.Address = u.Address
	existing.Avatar = u.Avatar
	existing.Role = u.Role
	existing.IsActive = u.IsActive
	existing.UpdatedAt = r.s.now()
	r.s.users[u.ID] = existing
	return &existing, nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrNotFound
	}
	for _, o := range r.s.orders {
		if o.UserID == id {
			return domain.Errorf(domain.ErrInvalidState, "User has orders and cannot be deleted")
		}
	}
	if cartID, ok := r.s.cartByUser[id]; ok {
		delete(r.s.cartLines, cartID)
		delete(r.s.carts, cartID)
		delete(r.s.cartByUser, id)
	}
	r.s.chats = slices.DeleteFunc(r.s.chats, func(c domain.ChatExchange) bool { return c.UserID == id })
	delete(r.s.users, id)
	return nil
}

type chatRepo struct{ s *Store }

func (r chatRepo) Create(_ context.Context, c domain.ChatExchange) (*domain.ChatExchange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[c.UserID]; !ok {
		return nil, domain.ErrNotFound
	}
	c.ID = newID()
	c.CreatedAt = r.s.now()
	r.s.chats = append(r.s.chats, c)
	return &c, nil
}

func (r chatRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.ChatExchange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.ChatExchange{}
	for i := len(r.s.chats) - 1; i >= 0; i-- {
		if r.s.chats[i].UserID != userID {
			continue
		}
		out = append(out, r.s.chats[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
