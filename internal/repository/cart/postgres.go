package cart

import (
	"context"
	"errors"
	"io"
	"log"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	cartColumns = `id::text, user_id::text, total_price_cents, total_items, created_at, updated_at`
	lineColumns = `id::text, cart_id::text, product_id::text, quantity, unit_price_cents, total_price_cents, created_at, updated_at`
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

func (r *postgresRepo) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	// ON CONFLICT keeps concurrent first accesses from creating two carts.
	const q = `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`
	cmd, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		r.logger.Printf("cart repo: get-or-create user_id=%s error=%v", userID, err)
		return nil, db.Translate(err)
	}
	if cmd.RowsAffected() == 1 {
		r.logger.Printf("cart repo: created cart user_id=%s", userID)
	}
	return r.GetByUser(ctx, userID)
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := scanCart(r.pool.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID))
	if err != nil {
		return nil, db.Translate(err)
	}
	return c, nil
}

func (r *postgresRepo) Recalculate(ctx context.Context, cartID string) (*domain.Cart, error) {
	c, err := scanCart(r.pool.QueryRow(ctx, recalculateSQL+` RETURNING `+cartColumns, cartID))
	if err != nil {
		r.logger.Printf("cart repo: recalculate cart_id=%s error=%v", cartID, err)
		return nil, db.Translate(err)
	}
	return c, nil
}

func (r *postgresRepo) Clear(ctx context.Context, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := ClearLines(ctx, tx, cartID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Printf("cart repo: cleared cart_id=%s", cartID)
	return nil
}

func (r *postgresRepo) ListLines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	const q = `
SELECT l.id::text, l.cart_id::text, l.product_id::text, l.quantity, l.unit_price_cents, l.total_price_cents, l.created_at, l.updated_at,
       p.id::text, COALESCE(p.name, ''), COALESCE(p.price_cents, 0), COALESCE(p.stock_quantity, 0), COALESCE(p.status, ''),
       COALESCE(p.image_url, '')
FROM cart_lines l
LEFT JOIN products p ON p.id = l.product_id
WHERE l.cart_id = $1
ORDER BY l.created_at ASC, l.id ASC
`
	rows, err := r.pool.Query(ctx, q, cartID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var (
			line      domain.CartLine
			productID *string
			p         domain.Product
			status    string
		)
		if err := rows.Scan(
			&line.ID, &line.CartID, &line.ProductID, &line.Quantity, &line.UnitPriceCents, &line.TotalPriceCents,
			&line.CreatedAt, &line.UpdatedAt,
			&productID, &p.Name, &p.PriceCents, &p.StockQuantity, &status, &p.ImageURL,
		); err != nil {
			return nil, err
		}
		if productID != nil {
			p.ID = *productID
			p.Status = domain.ProductStatus(status)
			line.Product = &p
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *postgresRepo) GetLine(ctx context.Context, cartID, lineID string) (*domain.CartLine, error) {
	line, err := scanLine(r.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM cart_lines WHERE id = $1 AND cart_id = $2`, lineID, cartID))
	if err != nil {
		return nil, db.Translate(err)
	}
	return line, nil
}

func (r *postgresRepo) AddLine(ctx context.Context, in AddLineInput) (*domain.CartLine, error) {
	// The merge re-snapshots the unit price and only applies while the combined quantity fits.
	const q = `
INSERT INTO cart_lines (cart_id, product_id, quantity, unit_price_cents, total_price_cents)
SELECT $1::uuid, $2::uuid, $3::int, $4::bigint, $4::bigint * $3::int
WHERE $3::int <= $5::int
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity,
    unit_price_cents = EXCLUDED.unit_price_cents,
    total_price_cents = EXCLUDED.unit_price_cents * (cart_lines.quantity + EXCLUDED.quantity),
    updated_at = now()
WHERE cart_lines.quantity + EXCLUDED.quantity <= $5::int
RETURNING ` + lineColumns
	line, err := scanLine(r.pool.QueryRow(ctx, q, in.CartID, in.ProductID, in.Quantity, in.UnitPriceCents, in.MaxQuantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("cart repo: add cart_id=%s product_id=%s qty=%d max=%d refused", in.CartID, in.ProductID, in.Quantity, in.MaxQuantity)
			return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for total quantity")
		}
		r.logger.Printf("cart repo: add cart_id=%s product_id=%s error=%v", in.CartID, in.ProductID, err)
		return nil, db.Translate(err)
	}
	r.logger.Printf("cart repo: add cart_id=%s product_id=%s line_id=%s qty=%d", in.CartID, in.ProductID, line.ID, line.Quantity)
	return line, nil
}

func (r *postgresRepo) UpdateLine(ctx context.Context, cartID, lineID string, quantity int, unitPriceCents int64) (*domain.CartLine, error) {
	const q = `
UPDATE cart_lines
SET quantity = $3, unit_price_cents = $4, total_price_cents = $4::bigint * $3::int, updated_at = now()
WHERE id = $1 AND cart_id = $2
RETURNING ` + lineColumns
	line, err := scanLine(r.pool.QueryRow(ctx, q, lineID, cartID, quantity, unitPriceCents))
	if err != nil {
		return nil, db.Translate(err)
	}
	return line, nil
}

func (r *postgresRepo) DeleteLine(ctx context.Context, cartID, lineID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`, lineID, cartID)
	if err != nil {
		return db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteLines(ctx context.Context, cartID string, lineIDs []string) (int, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND id = ANY($2::uuid[])`, cartID, lineIDs)
	if err != nil {
		return 0, db.Translate(err)
	}
	r.logger.Printf("cart repo: removed %d stale lines cart_id=%s", cmd.RowsAffected(), cartID)
	return int(cmd.RowsAffected()), nil
}

const recalculateSQL = `
UPDATE carts
SET total_price_cents = COALESCE((SELECT SUM(total_price_cents) FROM cart_lines WHERE cart_id = $1), 0),
    total_items = COALESCE((SELECT SUM(quantity) FROM cart_lines WHERE cart_id = $1), 0),
    updated_at = now()
WHERE id = $1
`

// Recalculate re-derives a cart's totals from its lines in a single statement.
func Recalculate(ctx context.Context, q db.Querier, cartID string) error {
	_, err := q.Exec(ctx, recalculateSQL, cartID)
	return err
}

// ClearLines deletes every line of a cart and zeroes its totals.
func ClearLines(ctx context.Context, q db.Querier, cartID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return db.Translate(err)
	}
	cmd, err := q.Exec(ctx, `UPDATE carts SET total_price_cents = 0, total_items = 0, updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.TotalPriceCents, &c.TotalItems, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var l domain.CartLine
	if err := row.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity, &l.UnitPriceCents, &l.TotalPriceCents, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
