package product

import (
	"context"
	"io"
	"log"
	"strings"

	"ecommerce-backend/internal/domain"
	productrepo "ecommerce-backend/internal/repository/product"
)

type productRepo interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) (int, error)
	IncrementStock(ctx context.Context, id string, qty int) (*domain.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, error)
}

type categoryRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

type Service struct {
	repo       productRepo
	categories categoryRepo
	logger     *log.Logger
}

func New(repo productRepo, categories categoryRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, categories: categories, logger: logger}
}

type ListInput struct {
	Page          domain.PageRequest
	Status        string
	CategoryID    string
	MinPriceCents *int64
	MaxPriceCents *int64
	SortBy        string
	SortOrder     string
}

type ListResult struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	f := productrepo.ListFilter{
		Page:          in.Page.Normalize(),
		CategoryID:    in.CategoryID,
		MinPriceCents: in.MinPriceCents,
		MaxPriceCents: in.MaxPriceCents,
		SortBy:        in.SortBy,
		SortDesc:      !strings.EqualFold(in.SortOrder, "asc"),
	}
	if f.SortBy != "" {
		if _, ok := productrepo.SortColumns[f.SortBy]; !ok {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid sort field %s", f.SortBy)
		}
	}
	if in.Status != "" {
		st := domain.ProductStatus(strings.ToUpper(in.Status))
		if !st.Valid() {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid product status")
		}
		f.Status = st
	}
	return s.list(ctx, f)
}

// Search matches active products by name or description.
func (s *Service) Search(ctx context.Context, q string, page domain.PageRequest) (*ListResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Search query is required")
	}
	return s.list(ctx, productrepo.ListFilter{
		Page:     page.Normalize(),
		Status:   domain.ProductActive,
		Query:    q,
		SortDesc: true,
	})
}

// ByCategory lists the active products of one category.
func (s *Service) ByCategory(ctx context.Context, categoryID string, page domain.PageRequest) (*ListResult, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, domain.NotFound(err, "Category")
	}
	return s.list(ctx, productrepo.ListFilter{
		Page:       page.Normalize(),
		Status:     domain.ProductActive,
		CategoryID: categoryID,
		SortDesc:   true,
	})
}

func (s *Service) list(ctx context.Context, f productrepo.ListFilter) (*ListResult, error) {
	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &ListResult{Products: products, Pagination: domain.NewPagination(f.Page, len(products), total)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	return p, nil
}

type Input struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	PriceCents    *int64  `json:"priceCents"`
	ImageURL      *string `json:"imageUrl"`
	CategoryID    *string `json:"categoryId"`
	StockQuantity *int    `json:"stockQuantity"`
	Color         *string `json:"color"`
	Size          *string `json:"size"`
	Status        *string `json:"status"`
}

// Create adds a product. Status defaults to ACTIVE and stock to zero.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	p := domain.Product{Status: domain.ProductActive}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Product name is required")
	}
	if in.PriceCents == nil {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Product price is required")
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "Stock quantity cannot be negative")
		}
		p.StockQuantity = *in.StockQuantity
	}
	if err := s.apply(ctx, &p, in); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("product service: created product_id=%s name=%q stock=%d", created.ID, created.Name, created.StockQuantity)
	return created, nil
}

// Update changes catalog fields. Stock is adjusted only through AdjustStock.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	if in.StockQuantity != nil {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Stock quantity is changed through the stock endpoint")
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, *p)
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	return updated, nil
}

func (s *Service) apply(ctx context.Context, p *domain.Product, in Input) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Errorf(domain.ErrInvalidArgument, "Product name is required")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return domain.Errorf(domain.ErrInvalidArgument, "Price cannot be negative")
		}
		p.PriceCents = *in.PriceCents
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.Color != nil {
		p.Color = *in.Color
	}
	if in.Size != nil {
		p.Size = *in.Size
	}
	if in.Status != nil {
		st := domain.ProductStatus(strings.ToUpper(*in.Status))
		if !st.Valid() {
			return domain.Errorf(domain.ErrInvalidArgument, "Invalid product status")
		}
		p.Status = st
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			p.CategoryID = nil
		} else {
			if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
				return domain.Errorf(domain.ErrInvalidArgument, "Category not found")
			}
			id := *in.CategoryID
			p.CategoryID = &id
		}
		p.Category = nil
	}
	return nil
}

// Deleted is the removed product with the number of cart lines that went with it.
type Deleted struct {
	domain.Product
	CleanupInfo struct {
		RemovedFromCarts int `json:"removedFromCarts"`
	} `json:"cleanupInfo"`
}

func (s *Service) Delete(ctx context.Context, id string) (*Deleted, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	s.logger.Printf("product service: deleted product_id=%s removed_cart_lines=%d", id, removed)
	d := &Deleted{Product: *p}
	d.CleanupInfo.RemovedFromCarts = removed
	return d, nil
}

// AdjustStock restocks (delta > 0) or writes off (delta < 0) inventory through the
// same atomic primitives order placement and cancellation use.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	var (
		p   *domain.Product
		err error
	)
	switch {
	case delta > 0:
		p, err = s.repo.IncrementStock(ctx, id, delta)
	case delta < 0:
		p, err = s.repo.DecrementStock(ctx, id, -delta)
	default:
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Stock delta must not be 0")
	}
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	s.logger.Printf("product service: stock product_id=%s delta=%d stock=%d", id, delta, p.StockQuantity)
	return p, nil
}
