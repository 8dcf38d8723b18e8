package main

import (
	"context"
	"flag"
	"log"
	"os"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/migrate"
	"ecommerce-backend/internal/seed"
)

func main() {
	withMigrations := flag.Bool("migrate", false, "apply schema migrations before seeding")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[ecommerce-seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Fatalf("STORE_DRIVER=%s has nothing to seed, the in-memory store starts empty on every run", cfg.StoreDriver)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if *withMigrations {
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	}

	if err := seed.Apply(ctx, pool); err != nil {
		logger.Fatalf("seed shop demo data: %v", err)
	}

	logger.Println("shop demo data ready: users admin@example.com / customer@example.com, categories and products")
}
