package payment_test

import (
	"context"
	"errors"
	"testing"

	"ecommerce-backend/internal/db/dbtest"
	"ecommerce-backend/internal/domain"
	orderrepo "ecommerce-backend/internal/repository/order"
	"ecommerce-backend/internal/repository/payment"
	"github.com/jackc/pgx/v5/pgxpool"
)

func insertOrder(ctx context.Context, t *testing.T, pool *pgxpool.Pool, status domain.OrderStatus) string {
	t.Helper()
	userID := dbtest.InsertUser(ctx, t, pool, "buyer@example.com")
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO orders (user_id, order_number, total_amount_cents, status, shipping_address)
VALUES ($1, 'ORD-TEST', 2000, $2, '1 Main St')
RETURNING id::text
`, userID, string(status)).Scan(&id)
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}
	return id
}

func orderStatus(ctx context.Context, t *testing.T, pool *pgxpool.Pool, id string) domain.OrderStatus {
	t.Helper()
	o, err := orderrepo.NewPostgres(pool, nil).GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	return o.Status
}

func newPayment(ctx context.Context, t *testing.T, repo payment.Repository, orderID string) *domain.Payment {
	t.Helper()
	p, err := repo.Create(ctx, domain.Payment{OrderID: orderID, PaymentMethod: domain.MethodCreditCard, AmountCents: 2000, Currency: "USD"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func TestPostgres_CreateLinksOrder(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := payment.NewPostgres(pool, nil)
	orderID := insertOrder(ctx, t, pool, domain.OrderPending)

	p := newPayment(ctx, t, repo, orderID)
	if p.Status != domain.PaymentPending {
		t.Fatalf("expected PENDING, got %s", p.Status)
	}

	o, err := orderrepo.NewPostgres(pool, nil).GetByID(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.PaymentID == nil || *o.PaymentID != p.ID {
		t.Fatalf("expected order to reference payment %s, got %v", p.ID, o.PaymentID)
	}

	if _, err := repo.Create(ctx, domain.Payment{OrderID: orderID, PaymentMethod: domain.MethodPayPal, AmountCents: 2000, Currency: "USD"}); !errors.Is(err, payment.ErrDuplicate) {
		t.Fatalf("expected duplicate payment error, got %v", err)
	}

	byOrder, err := repo.GetByOrder(ctx, orderID)
	if err != nil || byOrder.ID != p.ID {
		t.Fatalf("GetByOrder = %+v, %v", byOrder, err)
	}
}

func TestPostgres_TransitionIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := payment.NewPostgres(pool, nil)
	p := newPayment(ctx, t, repo, insertOrder(ctx, t, pool, domain.OrderPending))

	claim := payment.Transition{PaymentID: p.ID, From: []domain.PaymentStatus{domain.PaymentPending}, To: domain.PaymentProcessing}
	if _, err := repo.Transition(ctx, claim); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := repo.Transition(ctx, claim); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected second claim to be refused, got %v", err)
	}
}

func TestPostgres_CompletionCascadesToOrder(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := payment.NewPostgres(pool, nil)
	orderID := insertOrder(ctx, t, pool, domain.OrderPending)
	p := newPayment(ctx, t, repo, orderID)

	txn := "TXN-1"
	msg := "Payment processed successfully"
	done, err := repo.Transition(ctx, payment.Transition{
		PaymentID:       p.ID,
		To:              domain.PaymentCompleted,
		TransactionID:   &txn,
		GatewayResponse: &msg,
		Order:           &payment.OrderCascade{From: []domain.OrderStatus{domain.OrderPending}, To: domain.OrderConfirmed},
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if done.PaymentDate == nil || done.TransactionID == nil || *done.TransactionID != txn || done.GatewayResponse != msg {
		t.Fatalf("unexpected completed payment %+v", done)
	}
	if got := orderStatus(ctx, t, pool, orderID); got != domain.OrderConfirmed {
		t.Fatalf("expected order CONFIRMED, got %s", got)
	}

	// A second payment reusing the transaction id is rejected by the unique constraint.
	other := newPayment(ctx, t, repo, insertOrderNumbered(ctx, t, pool, "ORD-OTHER"))
	if _, err := repo.Transition(ctx, payment.Transition{PaymentID: other.ID, To: domain.PaymentCompleted, TransactionID: &txn}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate transaction id error, got %v", err)
	}
}

func TestPostgres_CascadeSkipsTerminalOrders(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := payment.NewPostgres(pool, nil)
	orderID := insertOrder(ctx, t, pool, domain.OrderShipped)
	p := newPayment(ctx, t, repo, orderID)

	refund := int64(2000)
	_, err := repo.Transition(ctx, payment.Transition{
		PaymentID:         p.ID,
		To:                domain.PaymentRefunded,
		RefundAmountCents: &refund,
		Order: &payment.OrderCascade{
			From: []domain.OrderStatus{domain.OrderPending, domain.OrderConfirmed, domain.OrderProcessing},
			To:   domain.OrderCancelled,
		},
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got := orderStatus(ctx, t, pool, orderID); got != domain.OrderShipped {
		t.Fatalf("expected shipped order to stay SHIPPED, got %s", got)
	}
}

func insertOrderNumbered(ctx context.Context, t *testing.T, pool *pgxpool.Pool, number string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO orders (user_id, order_number, total_amount_cents, shipping_address)
SELECT id, $1::text, 2000, '1 Main St' FROM users LIMIT 1
RETURNING id::text
`, number).Scan(&id)
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}
	return id
}
