package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columns = `id::text, email, password_hash, name, phone, address, avatar, role, is_active, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int, error) {
	page = page.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, email))
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, password_hash, name, phone, address, avatar, role, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + columns
	role := u.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	out, err := r.scanUser(r.pool.QueryRow(ctx, q,
		strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.Name, u.Phone, u.Address, u.Avatar, string(role), u.IsActive,
	))
	if err != nil {
		return nil, err
	}
	r.logger.Printf("user repo: created id=%s", out.ID)
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
UPDATE users
SET name = $2, phone = $3, address = $4, avatar = $5, role = $6, is_active = $7, updated_at = now()
WHERE id = $1
RETURNING ` + columns
	return r.scanUser(r.pool.QueryRow(ctx, q, u.ID, u.Name, u.Phone, u.Address, u.Avatar, string(u.Role), u.IsActive))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return domain.Errorf(domain.ErrInvalidState, "User has orders and cannot be deleted")
	}
	if err != nil {
		r.logger.Printf("user repo: delete id=%s error=%v", id, err)
		return db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Address, &u.Avatar, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		translated := db.Translate(err)
		if !errors.Is(translated, domain.ErrNotFound) && !errors.Is(translated, domain.ErrAlreadyExists) {
			r.logger.Printf("user repo: scan error=%v", err)
		}
		return nil, translated
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}
