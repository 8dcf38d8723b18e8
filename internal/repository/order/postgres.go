package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/cart"
	"ecommerce-backend/internal/repository/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	orderColumns = `id::text, user_id::text, order_number, total_amount_cents, status, shipping_address, order_note,
       payment_method, payment_id::text, idempotency_key, order_date, created_at, updated_at`
	lineColumns = `id::text, order_id::text, product_id::text, product_name, quantity, unit_price_cents, total_price_cents, created_at`
)

var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"totalAmount": "total_amount_cents",
	"orderNumber": "order_number",
	"status":      "status",
}

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

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Order, []domain.OrderLine, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the cart so a concurrent add/update/checkout cannot interleave with the conversion.
	var cartID string
	err = tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE id = $1 AND user_id = $2 FOR UPDATE`, in.CartID, in.UserID).Scan(&cartID)
	if err != nil {
		return nil, nil, db.Translate(err)
	}
	if err := verifyCartLines(ctx, tx, cartID, in.Lines); err != nil {
		return nil, nil, err
	}

	order, err := scanOrder(tx.QueryRow(ctx, `
INSERT INTO orders (user_id, order_number, total_amount_cents, status, shipping_address, order_note, payment_method, idempotency_key)
VALUES ($1, $2, $3, 'PENDING', $4, $5, $6, $7)
RETURNING `+orderColumns,
		in.UserID, in.OrderNumber, in.TotalAmountCents, in.ShippingAddress, in.OrderNote, in.PaymentMethod, in.IdempotencyKey,
	))
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "orders_order_number_key"):
			return nil, nil, ErrDuplicateNumber
		case db.IsUniqueViolation(err, "orders_idempotency_key"):
			return nil, nil, ErrDuplicateIdempotencyKey
		}
		r.logger.Printf("order repo: insert user_id=%s error=%v", in.UserID, err)
		return nil, nil, db.Translate(err)
	}

	lines := make([]domain.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		line, err := scanLine(tx.QueryRow(ctx, `
INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price_cents, total_price_cents)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+lineColumns,
			order.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPriceCents, l.UnitPriceCents*int64(l.Quantity),
		))
		if err != nil {
			return nil, nil, db.Translate(err)
		}
		lines = append(lines, *line)
	}

	// Decrement in a stable product order so concurrent checkouts lock rows in the same sequence.
	byProduct := make([]CreateLine, len(in.Lines))
	copy(byProduct, in.Lines)
	sort.Slice(byProduct, func(i, j int) bool { return byProduct[i].ProductID < byProduct[j].ProductID })
	for _, l := range byProduct {
		ok, err := product.DecrementForOrder(ctx, tx, l.ProductID, l.Quantity)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, r.decrementRefusal(ctx, tx, l)
		}
	}

	if err := cart.ClearLines(ctx, tx, cartID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Printf("order repo: commit order_number=%s error=%v", in.OrderNumber, err)
		return nil, nil, err
	}
	r.logger.Printf("order repo: created id=%s number=%s lines=%d total_cents=%d", order.ID, order.OrderNumber, len(lines), order.TotalAmountCents)
	return order, lines, nil
}

// verifyCartLines rejects the checkout when the locked cart no longer holds exactly the validated lines.
func verifyCartLines(ctx context.Context, tx pgx.Tx, cartID string, want []CreateLine) error {
	rows, err := tx.Query(ctx, `SELECT id::text, product_id::text, quantity, unit_price_cents FROM cart_lines WHERE cart_id = $1`, cartID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type snapshot struct {
		productID string
		quantity  int
		unitPrice int64
	}
	current := map[string]snapshot{}
	for rows.Next() {
		var (
			id string
			s  snapshot
		)
		if err := rows.Scan(&id, &s.productID, &s.quantity, &s.unitPrice); err != nil {
			return err
		}
		current[id] = s
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(current) == 0 {
		return domain.Errorf(domain.ErrInvalidState, "Cart is empty")
	}
	if len(current) != len(want) {
		return domain.Errorf(domain.ErrInvalidState, "Cart changed during checkout, please review it and try again")
	}
	for _, l := range want {
		s, ok := current[l.CartLineID]
		if !ok || s.productID != l.ProductID || s.quantity != l.Quantity || s.unitPrice != l.UnitPriceCents {
			return domain.Errorf(domain.ErrInvalidState, "Cart changed during checkout, please review it and try again")
		}
	}
	return nil
}

func (r *postgresRepo) decrementRefusal(ctx context.Context, tx pgx.Tx, l CreateLine) error {
	var (
		stock  int
		status string
	)
	err := tx.QueryRow(ctx, `SELECT stock_quantity, status FROM products WHERE id = $1`, l.ProductID).Scan(&stock, &status)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	r.logger.Printf("order repo: decrement refused product_id=%s qty=%d stock=%d status=%s", l.ProductID, l.Quantity, stock, status)
	if errors.Is(err, pgx.ErrNoRows) || domain.ProductStatus(status) != domain.ProductActive {
		return domain.Errorf(domain.ErrInvalidState, "Product %s is no longer available", l.ProductName)
	}
	return domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for %s", l.ProductName)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, db.Translate(err)
	}
	return o, nil
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND idempotency_key = $2`, userID, key))
	if err != nil {
		return nil, db.Translate(err)
	}
	return o, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, int, error) {
	page := f.Page.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.UserID != "" {
		where = append(where, "user_id = "+arg(f.UserID)+"::uuid")
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err)
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY %s %s, id LIMIT %s OFFSET %s`,
		orderColumns, clause, column, direction, arg(page.Limit), arg(page.Offset()))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, 0, db.Translate(err)
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *postgresRepo) ListLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	return listLines(ctx, r.pool, orderID)
}

func (r *postgresRepo) CountLines(ctx context.Context, orderID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_lines WHERE order_id = $1`, orderID).Scan(&n); err != nil {
		return 0, db.Translate(err)
	}
	return n, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status NOT IN ('SHIPPED', 'CANCELLED')
RETURNING `+orderColumns, id, string(status)))
	if err == nil {
		r.logger.Printf("order repo: status id=%s status=%s", id, status)
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, db.Translate(err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.Errorf(domain.ErrInvalidState, "Cannot update status of shipped or cancelled order")
}

func (r *postgresRepo) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status); err != nil {
		return nil, db.Translate(err)
	}
	switch domain.OrderStatus(status) {
	case domain.OrderShipped:
		return nil, domain.Errorf(domain.ErrInvalidState, "Cannot cancel order that has been shipped")
	case domain.OrderCancelled:
		return nil, domain.Errorf(domain.ErrInvalidState, "Order is already cancelled")
	}

	lines, err := listLines(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		err := product.IncrementStock(ctx, tx, l.ProductID, l.Quantity)
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("order repo: cancel id=%s product_id=%s gone, %d units not restored", id, l.ProductID, l.Quantity)
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	o, err := scanOrder(tx.QueryRow(ctx, `
UPDATE orders SET status = 'CANCELLED', updated_at = now()
WHERE id = $1
RETURNING `+orderColumns, id))
	if err != nil {
		return nil, db.Translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: cancelled id=%s lines_restored=%d", id, len(lines))
	return o, nil
}

func listLines(ctx context.Context, q db.Querier, orderID string) ([]domain.OrderLine, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	lines := []domain.OrderLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmountCents, &status, &o.ShippingAddress, &o.OrderNote,
		&o.PaymentMethod, &o.PaymentID, &o.IdempotencyKey, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func scanLine(row pgx.Row) (*domain.OrderLine, error) {
	var l domain.OrderLine
	if err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPriceCents, &l.TotalPriceCents, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
