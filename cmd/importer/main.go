package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/importer"
	categoryrepo "ecommerce-backend/internal/repository/category"
	productrepo "ecommerce-backend/internal/repository/product"
	categorysvc "ecommerce-backend/internal/service/category"
	productsvc "ecommerce-backend/internal/service/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to product CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	categories := categoryrepo.NewPostgres(pool, logger)
	products := productsvc.New(productrepo.NewPostgres(pool, logger), categories, logger)
	imp := importer.NewCSVImporter(f, products, categorysvc.New(categories), logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", count, err)
	}

	logger.Printf("imported %d products in %s", count, time.Since(start).Truncate(time.Millisecond))
}
