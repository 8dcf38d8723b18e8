package chat

import (
	"context"

	"ecommerce-backend/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, c domain.ChatExchange) (*domain.ChatExchange, error)
	// ListByUser returns up to limit exchanges, newest first. A limit <= 0 returns all of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.ChatExchange, error)
}
