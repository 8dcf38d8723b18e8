package chat

import (
	"context"
	"io"
	"log"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.ChatExchange) (*domain.ChatExchange, error) {
	const q = `
INSERT INTO chats (user_id, message, response)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
	out := c
	if err := r.pool.QueryRow(ctx, q, c.UserID, c.Message, c.Response).Scan(&out.ID, &out.CreatedAt); err != nil {
		r.logger.Printf("chat repo: create user_id=%s error=%v", c.UserID, err)
		return nil, db.Translate(err)
	}
	return &out, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ChatExchange, error) {
	q := `
SELECT id::text, user_id::text, message, response, created_at
FROM chats
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`
	args := []any{userID}
	if limit > 0 {
		q += "LIMIT $2"
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	result := []domain.ChatExchange{}
	for rows.Next() {
		var c domain.ChatExchange
		if err := rows.Scan(&c.ID, &c.UserID, &c.Message, &c.Response, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
