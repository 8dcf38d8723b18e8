package user

import (
	"context"

	"ecommerce-backend/internal/domain"
)

// Repository stores user accounts. Emails are unique case-insensitively.
type Repository interface {
	List(ctx context.Context, page domain.PageRequest) ([]domain.User, int, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	// Update writes the profile fields: name, phone, address, avatar, role and is_active.
	Update(ctx context.Context, u domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
