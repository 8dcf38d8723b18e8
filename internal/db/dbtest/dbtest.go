// Package dbtest connects integration tests to the database named by TEST_DB_DSN.
package dbtest

import (
	"context"
	"os"
	"testing"

	"ecommerce-backend/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

const truncateAll = `TRUNCATE chats, payments, order_lines, orders, cart_lines, carts, products, categories, users RESTART IDENTITY CASCADE`

// Pool returns a migrated, empty database or skips the test when TEST_DB_DSN is unset.
func Pool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, truncateAll); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

// InsertUser creates a bare user row and returns its id.
func InsertUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `INSERT INTO users (email, password_hash, name) VALUES ($1, 'x', 'Test') RETURNING id::text`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// InsertProduct creates an ACTIVE product and returns its id.
func InsertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string, priceCents int64, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (name, price_cents, stock_quantity, status)
VALUES ($1, $2, $3, 'ACTIVE')
RETURNING id::text
`, name, priceCents, stock).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}
