package seed

import (
	"context"
	"fmt"

	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userSeed struct {
	Email    string
	Password string
	Name     string
	Role     domain.UserRole
}

type categorySeed struct {
	Name        string
	Description string
}

type productSeed struct {
	Name          string
	Description   string
	Category      string
	PriceCents    int64
	StockQuantity int
	Color         string
	Size          string
}

var users = []userSeed{
	{Email: "admin@example.com", Password: "admin123", Name: "Demo Admin", Role: domain.RoleAdmin},
	{Email: "customer@example.com", Password: "customer123", Name: "Demo Customer", Role: domain.RoleCustomer},
}

var categories = []categorySeed{
	{Name: "Apparel", Description: "Shirts, hoodies and other clothing"},
	{Name: "Kitchen", Description: "Mugs, bottles and kitchenware"},
	{Name: "Accessories", Description: "Bags, caps and small goods"},
}

var products = []productSeed{
	{Name: "Demo T-Shirt", Description: "Soft cotton tee", Category: "Apparel", PriceCents: 1999, StockQuantity: 50, Color: "Black", Size: "M"},
	{Name: "Demo Hoodie", Description: "Heavyweight fleece hoodie", Category: "Apparel", PriceCents: 4999, StockQuantity: 20, Color: "Grey", Size: "L"},
	{Name: "Demo Mug", Description: "Ceramic mug with logo", Category: "Kitchen", PriceCents: 1299, StockQuantity: 100, Color: "White"},
	{Name: "Demo Bottle", Description: "Insulated steel bottle", Category: "Kitchen", PriceCents: 2499, StockQuantity: 30, Color: "Blue"},
	{Name: "Demo Tote", Description: "Canvas tote bag", Category: "Accessories", PriceCents: 1599, StockQuantity: 5, Color: "Natural"},
}

// Apply inserts demo users, categories and products for manual testing in one transaction.
// It is idempotent: existing rows are left as they are, so stock levels survive a re-run.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, u := range users {
			if err := ensureUser(ctx, tx, u); err != nil {
				return fmt.Errorf("ensure user %s: %w", u.Email, err)
			}
		}

		categoryIDs := make(map[string]string, len(categories))
		for _, c := range categories {
			id, err := ensureCategory(ctx, tx, c)
			if err != nil {
				return fmt.Errorf("ensure category %s: %w", c.Name, err)
			}
			categoryIDs[c.Name] = id
		}

		for _, p := range products {
			if err := ensureProduct(ctx, tx, categoryIDs[p.Category], p); err != nil {
				return fmt.Errorf("ensure product %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

func ensureUser(ctx context.Context, q db.Querier, u userSeed) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const stmt = `
INSERT INTO users (email, password_hash, name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT ((lower(email))) DO NOTHING
`
	_, err = q.Exec(ctx, stmt, u.Email, string(hash), u.Name, string(u.Role))
	return err
}

func ensureCategory(ctx context.Context, q db.Querier, c categorySeed) (string, error) {
	const stmt = `
INSERT INTO categories (name, description)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
RETURNING id::text
`
	var id string
	if err := q.QueryRow(ctx, stmt, c.Name, c.Description).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// Products have no natural key, so name is treated as one here.
func ensureProduct(ctx context.Context, q db.Querier, categoryID string, p productSeed) error {
	const stmt = `
INSERT INTO products (name, description, price_cents, category_id, stock_quantity, color, size, status)
SELECT $1::text, $2::text, $3::bigint, NULLIF($4::text, '')::uuid, $5::int, $6::text, $7::text, 'ACTIVE'
WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1::text)
`
	_, err := q.Exec(ctx, stmt, p.Name, p.Description, p.PriceCents, categoryID, p.StockQuantity, p.Color, p.Size)
	return err
}
