package payment

import (
	"context"
	"io"
	"log"
	"slices"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columns = `id::text, order_id::text, payment_method, amount_cents, currency, status, transaction_id, gateway_response,
       payment_date, refund_amount_cents, created_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out, err := scanPayment(tx.QueryRow(ctx, `
INSERT INTO payments (order_id, payment_method, amount_cents, currency, status)
VALUES ($1, $2, $3, $4, 'PENDING')
RETURNING `+columns, p.OrderID, string(p.PaymentMethod), p.AmountCents, p.Currency))
	if err != nil {
		if db.IsUniqueViolation(err, "payments_order_id_key") {
			return nil, ErrDuplicate
		}
		r.logger.Printf("payment repo: create order_id=%s error=%v", p.OrderID, err)
		return nil, db.Translate(err)
	}

	cmd, err := tx.Exec(ctx, `UPDATE orders SET payment_id = $2, updated_at = now() WHERE id = $1`, p.OrderID, out.ID)
	if err != nil {
		return nil, db.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("payment repo: created id=%s order_id=%s amount_cents=%d", out.ID, out.OrderID, out.AmountCents)
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, db.Translate(err)
	}
	return p, nil
}

func (r *postgresRepo) GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM payments WHERE order_id = $1`, orderID))
	if err != nil {
		return nil, db.Translate(err)
	}
	return p, nil
}

func (r *postgresRepo) Transition(ctx context.Context, t Transition) (*domain.Payment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1 FOR UPDATE`, t.PaymentID).Scan(&current); err != nil {
		return nil, db.Translate(err)
	}
	if len(t.From) > 0 && !slices.Contains(t.From, domain.PaymentStatus(current)) {
		r.logger.Printf("payment repo: transition id=%s %s->%s refused", t.PaymentID, current, t.To)
		return nil, domain.Errorf(domain.ErrInvalidState, "Payment is %s, cannot move to %s", current, t.To)
	}

	out, err := scanPayment(tx.QueryRow(ctx, `
UPDATE payments
SET status = $2,
    transaction_id = COALESCE($3, transaction_id),
    gateway_response = COALESCE($4, gateway_response),
    refund_amount_cents = COALESCE($5, refund_amount_cents),
    payment_date = CASE WHEN $2 = 'COMPLETED' THEN COALESCE(payment_date, now()) ELSE payment_date END,
    updated_at = now()
WHERE id = $1
RETURNING `+columns, t.PaymentID, string(t.To), t.TransactionID, t.GatewayResponse, t.RefundAmountCents))
	if err != nil {
		r.logger.Printf("payment repo: transition id=%s error=%v", t.PaymentID, err)
		return nil, db.Translate(err)
	}

	if t.Order != nil {
		from := make([]string, len(t.Order.From))
		for i, s := range t.Order.From {
			from[i] = string(s)
		}
		cmd, err := tx.Exec(ctx, `
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1 AND status = ANY($3)
`, out.OrderID, string(t.Order.To), from)
		if err != nil {
			return nil, db.Translate(err)
		}
		r.logger.Printf("payment repo: cascade order_id=%s to=%s applied=%t", out.OrderID, t.Order.To, cmd.RowsAffected() == 1)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("payment repo: transition id=%s %s->%s", t.PaymentID, current, t.To)
	return out, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		method string
		status string
	)
	err := row.Scan(&p.ID, &p.OrderID, &method, &p.AmountCents, &p.Currency, &status, &p.TransactionID, &p.GatewayResponse,
		&p.PaymentDate, &p.RefundAmountCents, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.PaymentMethod = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
