package category

import (
	"context"
	"io"
	"log"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columns = `id::text, name, description, created_at, updated_at`

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

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, db.Translate(err)
	}
	return c, nil
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, description)
VALUES ($1, $2)
RETURNING ` + columns
	out, err := scanCategory(r.pool.QueryRow(ctx, q, c.Name, c.Description))
	if err != nil {
		r.logger.Printf("category repo: create name=%q error=%v", c.Name, err)
		return nil, db.Translate(err)
	}
	r.logger.Printf("category repo: created id=%s name=%q", out.ID, out.Name)
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
UPDATE categories
SET name = $2, description = $3, updated_at = now()
WHERE id = $1
RETURNING ` + columns
	out, err := scanCategory(r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Description))
	if err != nil {
		return nil, db.Translate(err)
	}
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("category repo: deleted id=%s", id)
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
