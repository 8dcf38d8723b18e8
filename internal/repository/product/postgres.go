package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/cart"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectProduct = `
SELECT p.id::text, p.name, p.description, p.price_cents, p.image_url, p.category_id::text, p.stock_quantity,
       p.color, p.size, p.status, p.rating, p.review_count, p.created_at, p.updated_at,
       c.id::text, COALESCE(c.name, ''), COALESCE(c.description, '')
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
`

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

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, int, error) {
	page := f.Page.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "p.status = "+arg(string(f.Status)))
	}
	if f.CategoryID != "" {
		where = append(where, "p.category_id = "+arg(f.CategoryID)+"::uuid")
	}
	if f.MinPriceCents != nil {
		where = append(where, "p.price_cents >= "+arg(*f.MinPriceCents))
	}
	if f.MaxPriceCents != nil {
		where = append(where, "p.price_cents <= "+arg(*f.MaxPriceCents))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + q + "%")
		where = append(where, "(p.name ILIKE "+p+" OR p.description ILIKE "+p+")")
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products p "+clause, args...).Scan(&total); err != nil {
		r.logger.Printf("product repo: count error=%v", err)
		return nil, 0, db.Translate(err)
	}

	column, ok := SortColumns[f.SortBy]
	if !ok {
		column = SortColumns["createdAt"]
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	q := fmt.Sprintf("%s %s ORDER BY %s %s, p.id LIMIT %s OFFSET %s",
		selectProduct, clause, column, direction, arg(page.Limit), arg(page.Offset()))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, 0, db.Translate(err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0, page.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, 0, err
	}
	r.logger.Printf("product repo: list count=%d total=%d", len(result), total)
	return result, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, selectProduct+"WHERE p.id = $1", id))
	if err != nil {
		err = db.Translate(err)
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("product repo: get id=%s not found", id)
		} else {
			r.logger.Printf("product repo: get id=%s error=%v", id, err)
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (name, description, price_cents, image_url, category_id, stock_quantity, color, size, status, rating, review_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id::text
`
	var id string
	err := r.pool.QueryRow(ctx, q,
		p.Name, p.Description, p.PriceCents, p.ImageURL, p.CategoryID, p.StockQuantity,
		p.Color, p.Size, string(p.Status), p.Rating, p.ReviewCount,
	).Scan(&id)
	if err != nil {
		r.logger.Printf("product repo: create name=%q error=%v", p.Name, err)
		return nil, db.Translate(err)
	}
	r.logger.Printf("product repo: created id=%s name=%q", id, p.Name)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET name = $2, description = $3, price_cents = $4, image_url = $5, category_id = $6,
    color = $7, size = $8, status = $9, rating = $10, review_count = $11, updated_at = now()
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q,
		p.ID, p.Name, p.Description, p.PriceCents, p.ImageURL, p.CategoryID,
		p.Color, p.Size, string(p.Status), p.Rating, p.ReviewCount,
	)
	if err != nil {
		r.logger.Printf("product repo: update id=%s error=%v", p.ID, err)
		return nil, db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, p.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return 0, db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return 0, domain.ErrNotFound
	}

	rows, err := tx.Query(ctx, `DELETE FROM cart_lines WHERE product_id = $1 RETURNING cart_id::text`, id)
	if err != nil {
		return 0, err
	}
	affected := map[string]struct{}{}
	removed := 0
	for rows.Next() {
		var cartID string
		if err := rows.Scan(&cartID); err != nil {
			rows.Close()
			return 0, err
		}
		affected[cartID] = struct{}{}
		removed++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for cartID := range affected {
		if err := cart.Recalculate(ctx, tx, cartID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	r.logger.Printf("product repo: deleted id=%s cart_lines_removed=%d carts=%d", id, removed, len(affected))
	return removed, nil
}

func (r *postgresRepo) IncrementStock(ctx context.Context, id string, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Quantity must be greater than 0")
	}
	if err := IncrementStock(ctx, r.pool, id, qty); err != nil {
		r.logger.Printf("product repo: increment id=%s qty=%d error=%v", id, qty, err)
		return nil, err
	}
	r.logger.Printf("product repo: increment id=%s qty=%d", id, qty)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Quantity must be greater than 0")
	}
	const q = `
UPDATE products
SET stock_quantity = stock_quantity - $1, updated_at = now()
WHERE id = $2 AND stock_quantity >= $1
`
	cmd, err := r.pool.Exec(ctx, q, qty, id)
	if err != nil {
		return nil, db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		p, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		r.logger.Printf("product repo: decrement id=%s qty=%d stock=%d refused", id, qty, p.StockQuantity)
		return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for %s", p.Name)
	}
	r.logger.Printf("product repo: decrement id=%s qty=%d", id, qty)
	return r.GetByID(ctx, id)
}

// DecrementForOrder atomically takes qty units of an ACTIVE product. It reports false when the
// product is inactive, missing, or short on stock; nothing is written in that case.
func DecrementForOrder(ctx context.Context, q db.Querier, id string, qty int) (bool, error) {
	cmd, err := q.Exec(ctx, `
UPDATE products
SET stock_quantity = stock_quantity - $1, updated_at = now()
WHERE id = $2 AND stock_quantity >= $1 AND status = 'ACTIVE'
`, qty, id)
	if err != nil {
		return false, db.Translate(err)
	}
	return cmd.RowsAffected() == 1, nil
}

// IncrementStock returns qty units to a product. A product that no longer exists is reported as not found.
func IncrementStock(ctx context.Context, q db.Querier, id string, qty int) error {
	cmd, err := q.Exec(ctx, `
UPDATE products
SET stock_quantity = stock_quantity + $1, updated_at = now()
WHERE id = $2
`, qty, id)
	if err != nil {
		return db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p           domain.Product
		status      string
		categoryID  *string
		catName     string
		catDesc     string
		joinedCatID *string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL, &categoryID, &p.StockQuantity,
		&p.Color, &p.Size, &status, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
		&joinedCatID, &catName, &catDesc,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ProductStatus(status)
	p.CategoryID = categoryID
	if joinedCatID != nil {
		p.Category = &domain.Category{ID: *joinedCatID, Name: catName, Description: catDesc}
	}
	return &p, nil
}
