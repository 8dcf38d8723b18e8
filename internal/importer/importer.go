package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"ecommerce-backend/internal/domain"
	categorysvc "ecommerce-backend/internal/service/category"
	productsvc "ecommerce-backend/internal/service/product"
	"github.com/shopspring/decimal"
)

type ProductCreator interface {
	Create(ctx context.Context, in productsvc.Input) (*domain.Product, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, in categorysvc.Input) (*domain.Category, error)
}

// CSVImporter reads a product catalog CSV and creates one product per row.
// Unknown categories are created on first use.
//
// Recognised columns (header names are case-insensitive): name, description, price,
// category, stockQuantity, color, size, imageUrl, status. price is a decimal amount
// such as 19.99.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductCreator
	categories CategoryStore
	logger     *log.Logger

	categoryIDs map[string]string
}

func NewCSVImporter(r io.Reader, products ProductCreator, categories CategoryStore, logger *log.Logger) *CSVImporter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

type csvRow struct {
	Line     int
	Name     string
	Desc     string
	Cents    int64
	Category string
	Stock    int
	Color    string
	Size     string
	ImageURL string
	Status   string
}

// Run imports every row and stops at the first invalid one. Rows before it stay imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing required column \"name\"")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing required column \"price\"")
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.Line = line

		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	in := productsvc.Input{
		Name:          &row.Name,
		Description:   &row.Desc,
		PriceCents:    &row.Cents,
		StockQuantity: &row.Stock,
		Color:         &row.Color,
		Size:          &row.Size,
		ImageURL:      &row.ImageURL,
	}
	if row.Status != "" {
		in.Status = &row.Status
	}
	if row.Category != "" {
		id, err := i.categoryID(ctx, row.Category)
		if err != nil {
			return fmt.Errorf("line %d: category %q: %w", row.Line, row.Category, err)
		}
		in.CategoryID = &id
	}

	p, err := i.products.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("line %d: create product %q: %w", row.Line, row.Name, err)
	}
	i.logger.Printf("importer: created product_id=%s name=%q line=%d", p.ID, p.Name, row.Line)
	return nil
}

func (i *CSVImporter) categoryID(ctx context.Context, name string) (string, error) {
	if i.categoryIDs == nil {
		existing, err := i.categories.List(ctx)
		if err != nil {
			return "", err
		}
		i.categoryIDs = make(map[string]string, len(existing))
		for _, c := range existing {
			i.categoryIDs[strings.ToLower(c.Name)] = c.ID
		}
	}
	key := strings.ToLower(name)
	if id, ok := i.categoryIDs[key]; ok {
		return id, nil
	}
	c, err := i.categories.Create(ctx, categorysvc.Input{Name: name})
	if err != nil {
		return "", err
	}
	i.logger.Printf("importer: created category_id=%s name=%q", c.ID, c.Name)
	i.categoryIDs[key] = c.ID
	return c.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseRow returns nil for blank rows.
func parseRow(record []string, index map[string]int) (*csvRow, error) {
	row := &csvRow{
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		Category: pick(record, index, "category"),
		Color:    pick(record, index, "color"),
		Size:     pick(record, index, "size"),
		ImageURL: pick(record, index, "imageurl"),
		Status:   strings.ToUpper(pick(record, index, "status")),
	}
	price := pick(record, index, "price")
	stock := pick(record, index, "stockquantity")

	if row.Name == "" && price == "" && row.Desc == "" {
		return nil, nil
	}
	if row.Name == "" {
		return nil, errors.New("name is required")
	}

	cents, err := ParsePrice(price)
	if err != nil {
		return nil, err
	}
	row.Cents = cents

	if stock != "" {
		n, err := strconv.Atoi(stock)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid stockQuantity %q", stock)
		}
		row.Stock = n
	}
	return row, nil
}

// ParsePrice converts a decimal amount such as "19.99" to cents. Fractions of a cent are rejected.
func ParsePrice(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("price %q cannot be negative", s)
	}
	cents, err := domain.Cents(d)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", s, err)
	}
	return cents, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
