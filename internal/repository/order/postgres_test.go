package order_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ecommerce-backend/internal/db/dbtest"
	"ecommerce-backend/internal/domain"
	cartrepo "ecommerce-backend/internal/repository/cart"
	"ecommerce-backend/internal/repository/order"
	productrepo "ecommerce-backend/internal/repository/product"
	"github.com/jackc/pgx/v5/pgxpool"
)

// fillCart puts qty units of productID in the user's cart and returns the matching order input.
func fillCart(ctx context.Context, t *testing.T, pool *pgxpool.Pool, userID, productID string, qty int, number string) order.CreateInput {
	t.Helper()
	carts := cartrepo.NewPostgres(pool, nil)
	c, err := carts.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	line, err := carts.AddLine(ctx, cartrepo.AddLineInput{CartID: c.ID, ProductID: productID, Quantity: qty, UnitPriceCents: 1000, MaxQuantity: 100})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := carts.Recalculate(ctx, c.ID); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	return order.CreateInput{
		UserID:           userID,
		CartID:           c.ID,
		OrderNumber:      number,
		ShippingAddress:  "1 Main St",
		PaymentMethod:    "CREDIT_CARD",
		TotalAmountCents: int64(qty) * 1000,
		Lines: []order.CreateLine{{
			CartLineID:     line.ID,
			ProductID:      productID,
			ProductName:    "Tee",
			Quantity:       qty,
			UnitPriceCents: 1000,
		}},
	}
}

func stockOf(ctx context.Context, t *testing.T, pool *pgxpool.Pool, productID string) int {
	t.Helper()
	p, err := productrepo.NewPostgres(pool, nil).GetByID(ctx, productID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return p.StockQuantity
}

func TestPostgres_CreateConvertsCart(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := order.NewPostgres(pool, nil)

	userID := dbtest.InsertUser(ctx, t, pool, "buyer@example.com")
	productID := dbtest.InsertProduct(ctx, t, pool, "Tee", 1000, 5)
	in := fillCart(ctx, t, pool, userID, productID, 2, "ORD-1")
	key := "retry-1"
	in.IdempotencyKey = &key

	o, lines, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != domain.OrderPending || o.TotalAmountCents != 2000 || len(lines) != 1 {
		t.Fatalf("unexpected order %+v lines=%+v", o, lines)
	}
	if got := stockOf(ctx, t, pool, productID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}

	c, err := cartrepo.NewPostgres(pool, nil).GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if c.TotalItems != 0 || c.TotalPriceCents != 0 {
		t.Fatalf("expected emptied cart, got %+v", c)
	}

	replay, err := repo.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		t.Fatalf("GetByIdempotencyKey: %v", err)
	}
	if replay.ID != o.ID {
		t.Fatalf("expected idempotency key to resolve to %s, got %s", o.ID, replay.ID)
	}

	n, err := repo.CountLines(ctx, o.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountLines = %d, %v", n, err)
	}
}

func TestPostgres_CreateRollsBackOnInsufficientStock(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := order.NewPostgres(pool, nil)

	userID := dbtest.InsertUser(ctx, t, pool, "buyer@example.com")
	productID := dbtest.InsertProduct(ctx, t, pool, "Tee", 1000, 1)
	in := fillCart(ctx, t, pool, userID, productID, 2, "ORD-1")

	if _, _, err := repo.Create(ctx, in); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := stockOf(ctx, t, pool, productID); got != 1 {
		t.Fatalf("expected stock untouched, got %d", got)
	}
	lines, err := cartrepo.NewPostgres(pool, nil).ListLines(ctx, in.CartID)
	if err != nil {
		t.Fatalf("ListLines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected cart to keep its line, got %d", len(lines))
	}
	_, total, err := repo.List(ctx, order.ListFilter{Page: domain.PageRequest{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no order rows, got %d", total)
	}
}

func TestPostgres_CreateDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := order.NewPostgres(pool, nil)
	productID := dbtest.InsertProduct(ctx, t, pool, "Tee", 1000, 10)

	first := fillCart(ctx, t, pool, dbtest.InsertUser(ctx, t, pool, "a@example.com"), productID, 1, "ORD-SAME")
	if _, _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := fillCart(ctx, t, pool, dbtest.InsertUser(ctx, t, pool, "b@example.com"), productID, 1, "ORD-SAME")
	if _, _, err := repo.Create(ctx, second); !errors.Is(err, order.ErrDuplicateNumber) {
		t.Fatalf("expected duplicate number, got %v", err)
	}
	if got := stockOf(ctx, t, pool, productID); got != 9 {
		t.Fatalf("expected one decrement only, got stock %d", got)
	}
}

func TestPostgres_ConcurrentCreateNeverOversells(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := order.NewPostgres(pool, nil)
	productID := dbtest.InsertProduct(ctx, t, pool, "Tee", 1000, 5)

	const buyers = 12
	inputs := make([]order.CreateInput, buyers)
	for i := range inputs {
		userID := dbtest.InsertUser(ctx, t, pool, fmt.Sprintf("buyer%d@example.com", i))
		inputs[i] = fillCart(ctx, t, pool, userID, productID, 1, fmt.Sprintf("ORD-%d", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		placed   int
		rejected int
	)
	for _, in := range inputs {
		wg.Add(1)
		go func(in order.CreateInput) {
			defer wg.Done()
			_, _, err := repo.Create(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(in)
	}
	wg.Wait()

	if placed != 5 || rejected != buyers-5 {
		t.Fatalf("expected 5 placed and %d rejected, got %d and %d", buyers-5, placed, rejected)
	}
	if got := stockOf(ctx, t, pool, productID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestPostgres_CancelRestoresStockOnce(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := order.NewPostgres(pool, nil)

	userID := dbtest.InsertUser(ctx, t, pool, "buyer@example.com")
	productID := dbtest.InsertProduct(ctx, t, pool, "Tee", 1000, 5)
	o, _, err := repo.Create(ctx, fillCart(ctx, t, pool, userID, productID, 3, "ORD-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		cancelled int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Cancel(ctx, o.ID); err == nil {
				mu.Lock()
				cancelled++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrInvalidState) {
				t.Errorf("unexpected cancel error: %v", err)
			}
		}()
	}
	wg.Wait()

	if cancelled != 1 {
		t.Fatalf("expected exactly one successful cancel, got %d", cancelled)
	}
	if got := stockOf(ctx, t, pool, productID); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}
}

func TestPostgres_UpdateStatusRejectsTerminal(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := order.NewPostgres(pool, nil)

	userID := dbtest.InsertUser(ctx, t, pool, "buyer@example.com")
	productID := dbtest.InsertProduct(ctx, t, pool, "Tee", 1000, 5)
	o, _, err := repo.Create(ctx, fillCart(ctx, t, pool, userID, productID, 1, "ORD-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, o.ID, domain.OrderShipped); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, o.ID, domain.OrderProcessing); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state for shipped order, got %v", err)
	}
	if _, err := repo.Cancel(ctx, o.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected shipped order to refuse cancel, got %v", err)
	}
}
